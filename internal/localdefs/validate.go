package localdefs

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/open-policy-agent/opa/v1/rego"
	"gopkg.in/go-playground/validator.v9"
)

//go:embed rules.rego
var rulesModule string

var iamNamePattern = regexp.MustCompile(`^[\w+=,.@-]{1,128}$`)

var check = validator.New()

func init() {
	if err := check.RegisterValidation("iamname", func(fl validator.FieldLevel) bool {
		return iamNamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register iamname validator: %v", err))
	}
}

var formats = map[string]string{
	"required": "is required",
	"min":      "must be at least %v",
	"max":      "must be at most %v",
	"oneof":    "must be one of: [%v]",
	"cidrv4":   "must be an IPv4 CIDR",
	"cidrv6":   "must be an IPv6 CIDR",
	"unique":   "must not list a range twice",
	"iamname":  "must be 1-128 characters of letters, digits and +=,.@_-",
}

var (
	queryOnce sync.Once
	query     rego.PreparedEvalQuery
	queryErr  error
)

func preparedQuery(ctx context.Context) (rego.PreparedEvalQuery, error) {
	queryOnce.Do(func() {
		query, queryErr = rego.New(
			rego.Query("data.ec2mc.localdefs.deny"),
			rego.Module("rules.rego", rulesModule),
		).PrepareForEval(ctx)
	})
	return query, queryErr
}

// Validate checks field constraints on every definition, then evaluates the
// cross-document rules. All violations are returned together.
func Validate(ctx context.Context, defs *Definitions) error {
	var errs ValidationErrors

	for name, p := range defs.Policies {
		errs = append(errs, structErrors(filepath.Join(PoliciesDir, name+".json"), p)...)
	}
	for _, g := range defs.Groups {
		errs = append(errs, structErrors(GroupsManifest, g)...)
	}
	for _, p := range defs.Profiles {
		errs = append(errs, structErrors(ProfilesManifest, p)...)
	}
	for name, sg := range defs.SecurityGroups {
		errs = append(errs, structErrors(filepath.Join(SecurityGroupsDir, name+".yaml"), sg)...)
	}

	ruleErrs, err := evalRules(ctx, defs)
	if err != nil {
		return err
	}
	errs = append(errs, ruleErrs...)

	if len(errs) > 0 {
		errs.sort()
		return errs
	}
	return nil
}

func structErrors(file string, v any) ValidationErrors {
	err := check.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{File: file, Reason: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reason := fmt.Sprintf("failed %q check", fe.Tag())
		if format, ok := formats[fe.Tag()]; ok {
			if fe.Param() != "" {
				reason = fmt.Sprintf(format, fe.Param())
			} else {
				reason = format
			}
		}
		out = append(out, &ValidationError{File: file, Reason: fmt.Sprintf("%s %s", fe.Namespace(), reason)})
	}
	return out
}

func evalRules(ctx context.Context, defs *Definitions) (ValidationErrors, error) {
	q, err := preparedQuery(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile local definition rules: %w", err)
	}

	rs, err := q.Eval(ctx, rego.EvalInput(ruleInput(defs)))
	if err != nil {
		return nil, fmt.Errorf("evaluate local definition rules: %w", err)
	}

	var out ValidationErrors
	for _, result := range rs {
		for _, expr := range result.Expressions {
			items, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			for _, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					continue
				}
				file, _ := m["file"].(string)
				reason, _ := m["reason"].(string)
				out = append(out, &ValidationError{File: file, Reason: reason})
			}
		}
	}
	return out, nil
}

// ruleInput flattens definitions into plain JSON-like values. Slices are
// never nil so rules can count them.
func ruleInput(defs *Definitions) map[string]any {
	policies := map[string]any{}
	for name, p := range defs.Policies {
		policies[name] = map[string]any{"description": p.Description}
	}

	attach := func(names []string) []any {
		out := make([]any, 0, len(names))
		for _, n := range names {
			out = append(out, n)
		}
		return out
	}

	groups := map[string]any{}
	for name, g := range defs.Groups {
		groups[name] = map[string]any{"policies": attach(g.Policies)}
	}
	profiles := map[string]any{}
	for name, p := range defs.Profiles {
		profiles[name] = map[string]any{"policies": attach(p.Policies)}
	}

	sgs := map[string]any{}
	for name, sg := range defs.SecurityGroups {
		rules := make([]any, 0, len(sg.Ingress))
		for _, r := range sg.Ingress {
			rules = append(rules, map[string]any{
				"protocol":  r.Protocol,
				"from_port": int(r.FromPort),
				"to_port":   int(r.ToPort),
				"ipv4":      attach(r.IPv4),
				"ipv6":      attach(r.IPv6),
			})
		}
		sgs[name] = map[string]any{"ingress": rules}
	}

	return map[string]any{
		"policies":        policies,
		"groups":          groups,
		"profiles":        profiles,
		"security_groups": sgs,
	}
}

// Names returns the sorted keys of a definition map.
func Names[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
