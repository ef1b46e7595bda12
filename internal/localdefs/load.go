package localdefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type policiesManifest struct {
	Policies map[string]Policy `yaml:"policies"`
}

type groupsManifest struct {
	Groups map[string]Group `yaml:"groups"`
}

type profilesManifest struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

type securityGroupsManifest struct {
	SecurityGroups map[string]SecurityGroup `yaml:"security_groups"`
}

type securityGroupFile struct {
	Ingress []Rule `yaml:"ingress"`
}

// Load reads every manifest under dir and validates the result. A missing
// manifest declares nothing of its kind; a manifest entry whose document is
// missing is an error. Any problem is returned as ValidationErrors.
func Load(ctx context.Context, dir string) (*Definitions, error) {
	defs := &Definitions{
		Dir:            dir,
		Policies:       map[string]Policy{},
		Groups:         map[string]Group{},
		Profiles:       map[string]Profile{},
		SecurityGroups: map[string]SecurityGroup{},
	}

	var errs ValidationErrors
	add := func(ve *ValidationError) {
		errs = append(errs, ve)
	}

	var pm policiesManifest
	if err := readYAML(dir, PoliciesManifest, &pm); err != nil {
		add(err)
	}
	for name, p := range pm.Policies {
		p.Name = name
		file := filepath.Join(PoliciesDir, name+".json")
		data, err := os.ReadFile(filepath.Join(dir, file)) // #nosec G304 -- setup dir is user supplied
		if err != nil {
			add(&ValidationError{File: file, Reason: readReason(err)})
			continue
		}
		doc, err := ParseDocument(data)
		if err != nil {
			add(&ValidationError{File: file, Reason: err.Error()})
			continue
		}
		p.Document = doc
		defs.Policies[name] = p
	}

	var gm groupsManifest
	if err := readYAML(dir, GroupsManifest, &gm); err != nil {
		add(err)
	}
	for name, g := range gm.Groups {
		g.Name = name
		defs.Groups[name] = g
	}

	var prm profilesManifest
	if err := readYAML(dir, ProfilesManifest, &prm); err != nil {
		add(err)
	}
	for name, p := range prm.Profiles {
		p.Name = name
		defs.Profiles[name] = p
	}

	var sm securityGroupsManifest
	if err := readYAML(dir, SecurityGroupsManifest, &sm); err != nil {
		add(err)
	}
	for name, sg := range sm.SecurityGroups {
		sg.Name = name
		file := filepath.Join(SecurityGroupsDir, name+".yaml")
		if _, err := os.Stat(filepath.Join(dir, file)); err != nil {
			add(&ValidationError{File: file, Reason: readReason(err)})
			continue
		}
		var rules securityGroupFile
		if err := readYAML(dir, file, &rules); err != nil {
			add(err)
			continue
		}
		sg.Ingress = rules.Ingress
		defs.SecurityGroups[name] = sg
	}

	if len(errs) > 0 {
		errs.sort()
		return nil, errs
	}

	if err := Validate(ctx, defs); err != nil {
		return nil, err
	}

	log.Debug().
		Str("dir", dir).
		Int("policies", len(defs.Policies)).
		Int("groups", len(defs.Groups)).
		Int("profiles", len(defs.Profiles)).
		Int("security_groups", len(defs.SecurityGroups)).
		Msg("local definitions loaded")

	return defs, nil
}

// readYAML decodes dir/file into out. A missing file leaves out untouched.
func readYAML(dir, file string, out any) *ValidationError {
	data, err := os.ReadFile(filepath.Join(dir, file)) // #nosec G304 -- setup dir is user supplied
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &ValidationError{File: file, Reason: readReason(err)}
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return &ValidationError{File: file, Reason: fmt.Sprintf("parse: %v", err)}
	}
	return nil
}

func readReason(err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return "file does not exist"
	}
	return err.Error()
}
