package localdefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {"Effect": "Allow", "Action": ["ec2:DescribeInstances", "ec2:StartInstances"], "Resource": "*"}
  ]
}`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func validSetup() map[string]string {
	return map[string]string{
		PoliciesManifest: `
policies:
  basic:
    description: start and stop servers
  admin:
    description: everything
`,
		"iam_policies/basic.json": basicPolicy,
		"iam_policies/admin.json": `{"Statement": [{"Effect": "Allow", "Action": "*", "Resource": "*"}]}`,
		GroupsManifest: `
groups:
  players:
    policies: [basic]
  admins:
    policies: [basic, admin]
`,
		ProfilesManifest: `
profiles:
  server:
    policies: [basic]
`,
		SecurityGroupsManifest: `
security_groups:
  minecraft:
    description: game port and ssh
`,
		"security_groups/minecraft.yaml": `
ingress:
  - protocol: tcp
    from_port: 25565
    to_port: 25565
    ipv4: ["0.0.0.0/0"]
    ipv6: ["::/0"]
    description: game
  - protocol: tcp
    from_port: 22
    to_port: 22
    ipv4: ["203.0.113.0/24"]
`,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// Load
// ══════════════════════════════════════════════════════════════════════════════

func TestLoad_Valid(t *testing.T) {
	dir := writeFiles(t, validSetup())

	defs, err := Load(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "basic"}, Names(defs.Policies))
	assert.Equal(t, "basic", defs.Policies["basic"].Name)
	assert.Equal(t, DefaultPolicyVersion, defs.Policies["admin"].Document.Version)
	assert.Equal(t, StringList{"*"}, defs.Policies["admin"].Document.Statement[0].Action)
	assert.Equal(t, []string{"basic", "admin"}, defs.Groups["admins"].Policies)
	assert.Equal(t, []string{"basic"}, defs.Profiles["server"].Policies)

	sg := defs.SecurityGroups["minecraft"]
	assert.Equal(t, "game port and ssh", sg.Description)
	require.Len(t, sg.Ingress, 2)
	assert.Equal(t, int32(25565), sg.Ingress[0].FromPort)
	assert.Equal(t, []string{"::/0"}, sg.Ingress[0].IPv6)
}

func TestLoad_EmptyDir(t *testing.T) {
	defs, err := Load(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, defs.Policies)
	assert.Empty(t, defs.Groups)
	assert.Empty(t, defs.Profiles)
	assert.Empty(t, defs.SecurityGroups)
}

func TestLoad_MissingPolicyDocument(t *testing.T) {
	files := validSetup()
	delete(files, "iam_policies/admin.json")
	dir := writeFiles(t, files)

	_, err := Load(context.Background(), dir)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, filepath.Join("iam_policies", "admin.json"), ve.File)
	assert.Equal(t, "file does not exist", ve.Reason)
}

func TestLoad_MalformedYAML(t *testing.T) {
	files := validSetup()
	files[GroupsManifest] = "groups: [players"
	dir := writeFiles(t, files)

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iam_groups.yaml: parse")
}

func TestLoad_DuplicateManifestKey(t *testing.T) {
	files := validSetup()
	files[GroupsManifest] = `
groups:
  players:
    policies: [basic]
  players:
    policies: [admin]
`
	dir := writeFiles(t, files)

	_, err := Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "iam_groups.yaml")
}

// ══════════════════════════════════════════════════════════════════════════════
// Validation
// ══════════════════════════════════════════════════════════════════════════════

func TestLoad_FieldValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		file   string
		reason string
	}{
		{
			name: "bad effect",
			mutate: func(f map[string]string) {
				f["iam_policies/admin.json"] = `{"Statement": [{"Effect": "Maybe", "Action": "*", "Resource": "*"}]}`
			},
			file:   filepath.Join("iam_policies", "admin.json"),
			reason: "must be one of: [Allow Deny]",
		},
		{
			name: "no statements",
			mutate: func(f map[string]string) {
				f["iam_policies/admin.json"] = `{"Version": "2012-10-17", "Statement": []}`
			},
			file:   filepath.Join("iam_policies", "admin.json"),
			reason: "Statement",
		},
		{
			name: "bad cidr",
			mutate: func(f map[string]string) {
				f["security_groups/minecraft.yaml"] = `
ingress:
  - protocol: tcp
    from_port: 22
    to_port: 22
    ipv4: ["not-a-cidr"]
`
			},
			file:   filepath.Join("security_groups", "minecraft.yaml"),
			reason: "must be an IPv4 CIDR",
		},
		{
			name: "repeated cidr",
			mutate: func(f map[string]string) {
				f["security_groups/minecraft.yaml"] = `
ingress:
  - protocol: tcp
    from_port: 22
    to_port: 22
    ipv4: ["10.0.0.0/8", "10.0.0.0/8"]
`
			},
			file:   filepath.Join("security_groups", "minecraft.yaml"),
			reason: "must not list a range twice",
		},
		{
			name: "bad protocol",
			mutate: func(f map[string]string) {
				f["security_groups/minecraft.yaml"] = `
ingress:
  - protocol: sctp
    from_port: 1
    to_port: 1
    ipv4: ["10.0.0.0/8"]
`
			},
			file:   filepath.Join("security_groups", "minecraft.yaml"),
			reason: "must be one of",
		},
		{
			name: "missing sg description",
			mutate: func(f map[string]string) {
				f[SecurityGroupsManifest] = "security_groups:\n  minecraft: {}\n"
			},
			file:   filepath.Join("security_groups", "minecraft.yaml"),
			reason: "Description is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validSetup()
			tt.mutate(files)
			dir := writeFiles(t, files)

			_, err := Load(context.Background(), dir)
			require.Error(t, err)
			assertViolation(t, err, tt.file, tt.reason)
		})
	}
}

func TestLoad_CrossDocumentRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		file   string
		reason string
	}{
		{
			name: "group attaches undeclared policy",
			mutate: func(f map[string]string) {
				f[GroupsManifest] = "groups:\n  players:\n    policies: [basic, ghost]\n"
			},
			file:   GroupsManifest,
			reason: `group "players" attaches undeclared policy "ghost"`,
		},
		{
			name: "profile attaches undeclared policy",
			mutate: func(f map[string]string) {
				f[ProfilesManifest] = "profiles:\n  server:\n    policies: [ghost]\n"
			},
			file:   ProfilesManifest,
			reason: `profile "server" attaches undeclared policy "ghost"`,
		},
		{
			name: "duplicate group policy",
			mutate: func(f map[string]string) {
				f[GroupsManifest] = "groups:\n  players:\n    policies: [basic, basic]\n"
			},
			file:   GroupsManifest,
			reason: "more than once",
		},
		{
			name: "case-insensitive duplicate",
			mutate: func(f map[string]string) {
				f[GroupsManifest] = "groups:\n  Players:\n    policies: [basic]\n  players:\n    policies: [basic]\n"
			},
			file:   GroupsManifest,
			reason: "differ only in case",
		},
		{
			name: "inverted port range",
			mutate: func(f map[string]string) {
				f["security_groups/minecraft.yaml"] = "ingress:\n  - {protocol: tcp, from_port: 30, to_port: 20, ipv4: [\"10.0.0.0/8\"]}\n"
			},
			file:   "security_groups/minecraft.yaml",
			reason: "from_port 30 is greater than to_port 20",
		},
		{
			name: "rule without ranges",
			mutate: func(f map[string]string) {
				f["security_groups/minecraft.yaml"] = "ingress:\n  - {protocol: tcp, from_port: 22, to_port: 22}\n"
			},
			file:   "security_groups/minecraft.yaml",
			reason: "needs at least one ipv4 or ipv6 range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := validSetup()
			tt.mutate(files)
			dir := writeFiles(t, files)

			_, err := Load(context.Background(), dir)
			require.Error(t, err)
			assertViolation(t, err, tt.file, tt.reason)
		})
	}
}

func TestValidate_AllProtocolsRuleIgnoresPorts(t *testing.T) {
	defs := &Definitions{
		SecurityGroups: map[string]SecurityGroup{
			"open": {Name: "open", Description: "all traffic", Ingress: []Rule{
				{Protocol: "-1", FromPort: 0, ToPort: 0, IPv4: []string{"10.0.0.0/16"}},
			}},
		},
	}
	assert.NoError(t, Validate(context.Background(), defs))
}

func assertViolation(t *testing.T, err error, file, reason string) {
	t.Helper()
	var errs ValidationErrors
	require.True(t, errors.As(err, &errs), "expected ValidationErrors, got %T: %v", err, err)
	for _, e := range errs {
		if e.File == file && strings.Contains(e.Reason, reason) {
			return
		}
	}
	t.Fatalf("no violation for %s containing %q in:\n%v", file, reason, err)
}
