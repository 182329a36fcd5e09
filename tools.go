//go:build tools

// Package tools pins the code generators invoked through go generate,
// so mockgen resolves from go.mod on a fresh checkout.
package direct_chat

import (
	_ "go.uber.org/mock/mockgen"
)
