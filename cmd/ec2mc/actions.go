package main

import (
	"slices"
	"sort"

	"github.com/yairfalse/ec2mc/internal/access"
	"github.com/yairfalse/ec2mc/internal/address"
	"github.com/yairfalse/ec2mc/internal/discovery"
	"github.com/yairfalse/ec2mc/internal/keypair"
	"github.com/yairfalse/ec2mc/internal/network"
	"github.com/yairfalse/ec2mc/internal/servers"
)

const describeRegions = "ec2:DescribeRegions"

var setupDescribe = []string{
	"ec2:DescribeInternetGateways",
	"ec2:DescribeKeyPairs",
	"ec2:DescribeSecurityGroups",
	"ec2:DescribeSubnets",
	"ec2:DescribeVpcs",
}

// commandActions maps each command to the actions it is gated on.
var commandActions = []struct {
	command string
	actions []string
}{
	{"aws setup check", union(access.CheckActions, setupDescribe, []string{describeRegions})},
	{"aws setup upload", union(access.CheckActions, access.UploadActions, keypair.Actions, network.Actions, []string{describeRegions})},
	{"aws setup delete", union(access.CheckActions, access.DeleteActions, keypair.Actions, network.Actions, []string{describeRegions})},
	{"servers check", union(discovery.Actions, servers.CheckActions)},
	{"servers start", union(discovery.Actions, servers.StartActions)},
	{"servers start --elastic-ip", union(address.ListActions, address.AllocateActions, address.AssociateActions)},
	{"servers start --user-data", servers.UserDataActions},
	{"servers stop", union(discovery.Actions, servers.StopActions)},
	{"address list", union(address.ListActions, []string{describeRegions})},
	{"address allocate", union(address.AllocateActions, []string{describeRegions})},
	{"address associate", union(address.AssociateActions, []string{describeRegions})},
	{"address release", union(address.ReleaseActions, []string{describeRegions})},
}

// actionsFor returns the gated actions of command.
func actionsFor(command string) []string {
	for _, c := range commandActions {
		if c.command == command {
			return c.actions
		}
	}
	return nil
}

// union returns the sorted, duplicate free union of lists.
func union(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.Strings(out)
	return slices.Compact(out)
}
