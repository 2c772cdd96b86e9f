package cli

import (
	"errors"
	"fmt"

	actx "go.hackfix.me/romstash/app/context"
	aerrors "go.hackfix.me/romstash/app/errors"
	"go.hackfix.me/romstash/attach"
	"go.hackfix.me/romstash/source"
	"go.hackfix.me/romstash/web/client"
)

// The Attach command loads an image and attaches it to the emulator core.
type Attach struct {
	BIOS AttachBIOS `kong:"cmd,name='bios',help='Attach a BIOS image.'"`
	ROM  AttachROM  `kong:"cmd,name='rom',help='Attach a ROM image.'"`
}

// AttachBIOS attaches a BIOS image.
type AttachBIOS struct {
	AttachSource `embed:""`
}

// AttachROM attaches a ROM image.
type AttachROM struct {
	AttachSource `embed:""`
}

// AttachSource selects where an image is loaded from.
type AttachSource struct {
	Paths     []string `arg:"" optional:"" help:"Files to load. Only the last one is used."`
	URL       string   `name:"url" help:"Name of the file to download, relative to the base URL."`
	BaseURL   string   `default:"http://localhost:2020/files/" help:"Base URL files are downloaded from."`
	NoPersist bool     `help:"Don't store the image after attaching it."`
}

// Run the attach bios command.
func (c *AttachBIOS) Run(appCtx *actx.Context) error {
	p, err := c.load(appCtx)
	if err != nil {
		return err
	}
	if err = appCtx.Attacher.AttachBIOS(appCtx.Ctx, p, !c.NoPersist); err != nil {
		return attachErr("BIOS", err)
	}
	fmt.Fprintf(appCtx.Stdout, "Attached BIOS (%d bytes)\n", p.Len())

	return nil
}

// Run the attach rom command.
func (c *AttachROM) Run(appCtx *actx.Context) error {
	p, err := c.load(appCtx)
	if err != nil {
		return err
	}
	if err = appCtx.Attacher.AttachROM(appCtx.Ctx, p, !c.NoPersist); err != nil {
		return attachErr("ROM", err)
	}
	fmt.Fprintf(appCtx.Stdout, "Attached ROM (%d bytes)\n", len(appCtx.Core.ROM()))

	return nil
}

func (s *AttachSource) load(appCtx *actx.Context) (attach.Payload, error) {
	if s.URL != "" {
		c, err := client.New(s.BaseURL)
		if err != nil {
			return attach.Payload{}, aerrors.NewRuntimeError(
				"invalid base URL", err, "")
		}
		return c.Download(appCtx.Ctx, s.URL)
	}

	p, err := source.NewLoader(appCtx.FS, appCtx.Logger).LoadLast(s.Paths)
	if err != nil {
		var decErr *source.DecodeError
		if errors.As(err, &decErr) {
			return attach.Payload{}, err
		}
		return attach.Payload{}, aerrors.NewRuntimeError(
			"failed loading file", err,
			"Pass the path of an image file, or a file name with --url.")
	}

	return p, nil
}

func attachErr(asset string, err error) error {
	var rejErr *attach.ConsumerRejectedError
	if errors.As(err, &rejErr) {
		return aerrors.NewRuntimeError(
			fmt.Sprintf("the emulator core rejected the %s image", asset),
			rejErr.Err, "Make sure the file is a valid image.")
	}
	return err
}
