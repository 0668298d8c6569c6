package rebalance

import "github.com/cuemby/ringplace/pkg/ringerr"

var errIndexRange = ringerr.New(ringerr.InvalidConfig, "rebalance.Plan", "move index out of range")
