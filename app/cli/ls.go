package cli

import (
	"fmt"

	actx "go.hackfix.me/romstash/app/context"
)

// The LS command prints stored asset keys.
type LS struct {
	KeyPrefix string `arg:"" optional:"" help:"An optional key prefix."`
}

// Run the ls command.
func (c *LS) Run(appCtx *actx.Context) error {
	keys, err := appCtx.Assets.Keys(appCtx.Ctx, c.KeyPrefix)
	if err != nil {
		return err
	}

	for _, key := range keys {
		fmt.Fprintf(appCtx.Stdout, "%s\n", key)
	}

	return nil
}
