package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/yairfalse/ec2mc/internal/access"
	"github.com/yairfalse/ec2mc/internal/keypair"
	"github.com/yairfalse/ec2mc/internal/localdefs"
	"github.com/yairfalse/ec2mc/internal/network"
	"github.com/yairfalse/ec2mc/internal/reconcile"
)

func newAWSCmd(flags *globalFlags) *cobra.Command {
	awsCmd := &cobra.Command{
		Use:   "aws",
		Short: "Manage the AWS account setup",
	}

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Compare, upload or delete the namespace AWS setup",
		Long: `The AWS setup is declared in the setup directory (setup_dir in the
config): IAM policies, groups and instance profiles, plus security groups
created in every allowed region. The namespace SSH key pair and VPC are
managed alongside them.

  check   compare local definitions with AWS without changing anything
  upload  create missing and update drifted resources
  delete  remove every namespace resource, including unknown ones`,
	}

	setupCmd.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Compare local definitions with AWS",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, func(ctx context.Context, a *app, _ []string) error { return runSetupCheck(ctx, a) }),
		},
		&cobra.Command{
			Use:   "upload",
			Short: "Create and update AWS resources from local definitions",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, func(ctx context.Context, a *app, _ []string) error { return runSetupUpload(ctx, a) }),
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete every namespace resource",
			Args:  cobra.NoArgs,
			RunE:  withApp(flags, func(ctx context.Context, a *app, _ []string) error { return runSetupDelete(ctx, a) }),
		},
	)

	awsCmd.AddCommand(setupCmd)
	return awsCmd
}

// setup holds one reconciler per resource kind, in upload order.
type setup struct {
	policies *reconcile.Reconciler[localdefs.Policy, access.RemotePolicy]
	groups   *reconcile.Reconciler[localdefs.Group, access.RemoteGroup]
	profiles *reconcile.Reconciler[localdefs.Profile, access.RemoteProfile]
	keys     *keypair.Kind
	vpcs     *reconcile.Reconciler[network.VPC, network.RemoteVPC]
	sgs      *reconcile.Reconciler[localdefs.SecurityGroup, network.RemoteGroup]

	profileKind *access.ProfileKind
	vpcKind     *network.VPCKind
	groupKind   *network.GroupKind
}

// setupPlan is the check result of every kind.
type setupPlan struct {
	policies *reconcile.Plan[localdefs.Policy, access.RemotePolicy]
	groups   *reconcile.Plan[localdefs.Group, access.RemoteGroup]
	profiles *reconcile.Plan[localdefs.Profile, access.RemoteProfile]
	keys     *reconcile.Plan[*keypair.LocalKey, keypair.RemoteKey]
	vpcs     *reconcile.Plan[network.VPC, network.RemoteVPC]
	sgs      *reconcile.Plan[localdefs.SecurityGroup, network.RemoteGroup]

	key *keypair.LocalKey
}

func (p *setupPlan) reports() []struct {
	title  string
	report reconcile.Report
} {
	return []struct {
		title  string
		report reconcile.Report
	}{
		{"IAM policies", p.policies.Report},
		{"IAM groups", p.groups.Report},
		{"Instance profiles", p.profiles.Report},
		{"Key pairs", p.keys.Report},
		{"VPCs", p.vpcs.Report},
		{"Security groups", p.sgs.Report},
	}
}

// changes counts the resources an upload would create or update.
func (p *setupPlan) changes() int {
	n := 0
	for _, r := range p.reports() {
		n += len(r.report.ToCreate) + len(r.report.ToUpdate)
	}
	return n
}

func newSetup(a *app, regions []string) *setup {
	ns := a.cfg.Namespace
	iam := a.clients.IAM()
	profileKind := access.NewProfileKind(iam, ns)
	vpcKind := network.NewVPCKind(a.clients, ns, regions)
	groupKind := network.NewGroupKind(a.clients, ns, regions)
	return &setup{
		policies:    reconcile.New[localdefs.Policy, access.RemotePolicy](access.NewPolicyKind(iam, ns)),
		groups:      reconcile.New[localdefs.Group, access.RemoteGroup](access.NewGroupKind(iam, ns)),
		profiles:    reconcile.New[localdefs.Profile, access.RemoteProfile](profileKind),
		keys:        keypair.NewKind(a.clients, ns, regions),
		vpcs:        reconcile.New[network.VPC, network.RemoteVPC](vpcKind),
		sgs:         reconcile.New[localdefs.SecurityGroup, network.RemoteGroup](groupKind),
		profileKind: profileKind,
		vpcKind:     vpcKind,
		groupKind:   groupKind,
	}
}

func (s *setup) check(ctx context.Context, defs *localdefs.Definitions, keyFile string) (*setupPlan, error) {
	var (
		p   setupPlan
		err error
	)
	if p.policies, err = s.policies.Check(ctx, defs.Policies); err != nil {
		return nil, err
	}
	if p.groups, err = s.groups.Check(ctx, defs.Groups); err != nil {
		return nil, err
	}
	if p.profiles, err = s.profiles.Check(ctx, defs.Profiles); err != nil {
		return nil, err
	}
	if p.keys, p.key, err = s.keys.Check(ctx, keyFile); err != nil {
		return nil, err
	}
	if p.vpcs, err = s.vpcs.Check(ctx, s.vpcKind.Locals()); err != nil {
		return nil, err
	}
	if p.sgs, err = s.sgs.Check(ctx, s.groupKind.Locals(defs.SecurityGroups)); err != nil {
		return nil, err
	}
	return &p, nil
}

// upload applies p in dependency order: policies before the groups and
// profiles attaching them, the VPC before its security groups.
func (s *setup) upload(ctx context.Context, p *setupPlan) error {
	if _, err := s.policies.Upload(ctx, p.policies); err != nil {
		return err
	}
	if _, err := s.groups.Upload(ctx, p.groups); err != nil {
		return err
	}
	if _, err := s.profiles.Upload(ctx, p.profiles); err != nil {
		return err
	}
	if _, err := reconcile.New[*keypair.LocalKey, keypair.RemoteKey](s.keys).Upload(ctx, p.keys); err != nil {
		return err
	}
	if _, err := s.vpcs.Upload(ctx, p.vpcs); err != nil {
		return err
	}
	if _, err := s.sgs.Upload(ctx, p.sgs); err != nil {
		return err
	}
	return nil
}

// deleteAll removes every kind in reverse upload order and returns the
// deleted names per kind.
func (s *setup) deleteAll(ctx context.Context) (map[string][]string, error) {
	deleted := make(map[string][]string)
	steps := []struct {
		kind string
		run  func(context.Context) ([]string, error)
	}{
		{s.sgs.Kind().Name(), s.sgs.Delete},
		{s.vpcs.Kind().Name(), s.vpcs.Delete},
		{s.keys.Name(), reconcile.New[*keypair.LocalKey, keypair.RemoteKey](s.keys).Delete},
		{s.profiles.Kind().Name(), s.profiles.Delete},
		{"iam_role", s.profileKind.SweepRoles},
		{s.groups.Kind().Name(), s.groups.Delete},
		{s.policies.Kind().Name(), s.policies.Delete},
	}
	for _, step := range steps {
		names, err := step.run(ctx)
		deleted[step.kind] = names
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func loadSetup(ctx context.Context, a *app, command string) (*setup, *localdefs.Definitions, error) {
	if err := requireCommand(ctx, a, command); err != nil {
		return nil, nil, err
	}
	defs, err := localdefs.Load(ctx, a.cfg.SetupDir)
	if err != nil {
		return nil, nil, err
	}
	regions, err := a.allowedRegions(ctx)
	if err != nil {
		return nil, nil, err
	}
	return newSetup(a, regions), defs, nil
}

func runSetupCheck(ctx context.Context, a *app) error {
	s, defs, err := loadSetup(ctx, a, "aws setup check")
	if err != nil {
		return err
	}

	plan, err := s.check(ctx, defs, a.cfg.KeyFile)
	if err != nil {
		return err
	}
	printPlan(a, plan)

	users, err := access.ListUsers(ctx, a.clients.IAM(), a.cfg.Namespace)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	if len(names) == 0 {
		names = []string{"none"}
	}
	fmt.Fprintf(a.out, "Namespace users: %s\n", strings.Join(names, ", "))
	return nil
}

func runSetupUpload(ctx context.Context, a *app) error {
	s, defs, err := loadSetup(ctx, a, "aws setup upload")
	if err != nil {
		return err
	}

	plan, err := s.check(ctx, defs, a.cfg.KeyFile)
	if err != nil {
		return err
	}
	printPlan(a, plan)

	n := plan.changes()
	if n == 0 {
		fmt.Fprintln(a.out, "Everything is up to date.")
		return nil
	}
	ok, err := a.confirm(fmt.Sprintf("Upload %d change(s) to namespace %s?", n, a.cfg.Namespace))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Upload cancelled.")
		return nil
	}

	if err := s.upload(ctx, plan); err != nil {
		return err
	}
	if plan.key.Generated() {
		fmt.Fprintf(a.out, "Private key written to %s\n", plan.key.Path)
	}
	fmt.Fprintf(a.out, "Uploaded %d change(s).\n", n)
	return nil
}

func runSetupDelete(ctx context.Context, a *app) error {
	s, _, err := loadSetup(ctx, a, "aws setup delete")
	if err != nil {
		return err
	}

	ok, err := a.confirm(fmt.Sprintf("Delete every %s resource in every allowed region?", a.cfg.Namespace))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Delete cancelled.")
		return nil
	}

	deleted, err := s.deleteAll(ctx)
	for kind, names := range deleted {
		if len(names) > 0 {
			log.Info().Ctx(ctx).Str("kind", kind).Strs("names", names).Msg("deleted")
		}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Namespace setup deleted.")
	return nil
}

func printPlan(a *app, p *setupPlan) {
	for _, r := range p.reports() {
		reconcile.Print(a.out, r.title, r.report)
		fmt.Fprintln(a.out)
	}
}
