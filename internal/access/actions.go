package access

// CheckActions are needed to compare local IAM definitions with AWS.
var CheckActions = []string{
	"iam:GetPolicyVersion",
	"iam:ListAttachedGroupPolicies",
	"iam:ListAttachedRolePolicies",
	"iam:ListGroups",
	"iam:ListInstanceProfiles",
	"iam:ListPolicies",
	"iam:ListUsers",
}

// UploadActions are needed to create and update IAM resources.
var UploadActions = []string{
	"iam:AddRoleToInstanceProfile",
	"iam:AttachGroupPolicy",
	"iam:AttachRolePolicy",
	"iam:CreateGroup",
	"iam:CreateInstanceProfile",
	"iam:CreatePolicy",
	"iam:CreatePolicyVersion",
	"iam:CreateRole",
	"iam:DeletePolicyVersion",
	"iam:DetachGroupPolicy",
	"iam:DetachRolePolicy",
	"iam:ListPolicyVersions",
	"iam:PassRole",
	"iam:RemoveRoleFromInstanceProfile",
}

// DeleteActions are needed to remove every namespace IAM resource.
var DeleteActions = []string{
	"iam:DeleteGroup",
	"iam:DeleteGroupPolicy",
	"iam:DeleteInstanceProfile",
	"iam:DeletePolicy",
	"iam:DeletePolicyVersion",
	"iam:DeleteRole",
	"iam:DeleteRolePolicy",
	"iam:DetachGroupPolicy",
	"iam:DetachRolePolicy",
	"iam:DetachUserPolicy",
	"iam:GetGroup",
	"iam:ListEntitiesForPolicy",
	"iam:ListGroupPolicies",
	"iam:ListPolicyVersions",
	"iam:ListRolePolicies",
	"iam:ListRoles",
	"iam:RemoveRoleFromInstanceProfile",
	"iam:RemoveUserFromGroup",
}
