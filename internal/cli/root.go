package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/samvad-hq/samvad-flows/internal/app"
	"github.com/samvad-hq/samvad-flows/internal/storage"
	"github.com/samvad-hq/samvad-flows/pkg/flows"
	"github.com/spf13/cobra"
)

// RuntimeFactory builds the runtime a command runs against. It is called once
// per command so --help works without credentials.
type RuntimeFactory func(ctx context.Context) (*app.Runtime, error)

// JournalFactory opens the flow token journal for commands that only read it.
type JournalFactory func(ctx context.Context) (storage.Store, error)

// NewRootCommand creates the flowctl command tree writing results to out.
func NewRootCommand(newRuntime RuntimeFactory, openJournal JournalFactory, out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "flowctl",
		Short:         "Create, publish and send WhatsApp Flows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newCreateCmd(newRuntime, out),
		newAssetCmd("upload <flow-id> <file>", "Upload a flow JSON definition", newRuntime, out, (*app.Runtime).UploadFlowJSON),
		newAssetCmd("update-json <flow-id> <file>", "Replace a flow JSON definition", newRuntime, out, (*app.Runtime).UpdateFlowJSON),
		newFlowCmd("publish <flow-id>", "Publish a draft flow", newRuntime, out, (*app.Runtime).PublishFlow),
		newFlowCmd("deprecate <flow-id>", "Deprecate a published flow", newRuntime, out, (*app.Runtime).DeprecateFlow),
		newFlowCmd("delete <flow-id>", "Delete a draft flow", newRuntime, out, (*app.Runtime).DeleteFlow),
		newRenameCmd(newRuntime, out),
		newListCmd(newRuntime, out),
		newReadCmd("details <flow-id>", "Show flow details", newRuntime, out, (*flows.Manager).GetFlowDetails),
		newReadCmd("assets <flow-id>", "List flow assets", newRuntime, out, (*flows.Manager).GetFlowAssets),
		newReadCmd("simulate <flow-id>", "Get a preview link for a flow", newRuntime, out, (*flows.Manager).SimulateFlow),
		newSendCmd(newRuntime, out),
		newTokenCmd(openJournal, out),
	)
	return root
}

func withRuntime(newRuntime RuntimeFactory, fn func(ctx context.Context, rt *app.Runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(ctx, rt, args)
	}
}

func newCreateCmd(newRuntime RuntimeFactory, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a draft flow and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			res, err := rt.CreateFlow(ctx, args[0])
			if err != nil {
				return err
			}
			if res.Created() {
				_, err := fmt.Fprintln(out, res.FlowID)
				return err
			}
			return printResponse(out, res.Response)
		}),
	}
}

func newAssetCmd(use, short string, newRuntime RuntimeFactory, out io.Writer, op func(*app.Runtime, context.Context, string, string) (*flows.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			resp, err := op(rt, ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		}),
	}
}

func newFlowCmd(use, short string, newRuntime RuntimeFactory, out io.Writer, op func(*app.Runtime, context.Context, string) (*flows.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			resp, err := op(rt, ctx, args[0])
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		}),
	}
}

func newReadCmd(use, short string, newRuntime RuntimeFactory, out io.Writer, op func(*flows.Manager, context.Context, string) (*flows.Response, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			resp, err := op(rt.Manager(), ctx, args[0])
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		}),
	}
}

func newRenameCmd(newRuntime RuntimeFactory, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <flow-id> <new-name>",
		Short: "Rename a flow",
		Args:  cobra.ExactArgs(2),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			resp, err := rt.UpdateFlow(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		}),
	}
}

func newListCmd(newRuntime RuntimeFactory, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List flows of the business account",
		Args:  cobra.NoArgs,
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, _ []string) error {
			resp, err := rt.Manager().ListFlows(ctx)
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		}),
	}
}

func newSendCmd(newRuntime RuntimeFactory, out io.Writer) *cobra.Command {
	var (
		req   flows.SendRequest
		draft bool
	)
	cmd := &cobra.Command{
		Use:   "send <flow-id>",
		Short: "Send a flow message to a recipient",
		Args:  cobra.ExactArgs(1),
		RunE: withRuntime(newRuntime, func(ctx context.Context, rt *app.Runtime, args []string) error {
			req.FlowID = args[0]
			mode := flows.ModePublished
			if draft {
				mode = flows.ModeDraft
			}
			res, err := rt.SendFlow(ctx, req, mode)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(out, "flow_token: %s\n", res.FlowToken); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
			return printResponse(out, res.Response)
		}),
	}

	f := cmd.Flags()
	f.StringVar(&req.HeaderText, "header", "", "CTA header text")
	f.StringVar(&req.BodyText, "body", "", "CTA body text")
	f.StringVar(&req.FooterText, "footer", "", "CTA footer text")
	f.StringVar(&req.ButtonText, "button", "", "CTA button text")
	f.StringVar(&req.FirstScreen, "screen", "", "first screen id")
	f.StringVar(&req.Recipient, "to", "", "recipient phone number")
	f.BoolVar(&draft, "draft", false, "send the unpublished draft")
	for _, name := range []string{"header", "body", "footer", "button", "screen", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newTokenCmd(openJournal JournalFactory, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "token <flow-token>",
		Short: "Show which send a flow token belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			journal, err := openJournal(ctx)
			if err != nil {
				return err
			}
			defer journal.Close()

			rec, found, err := journal.LookupToken(args[0])
			if err != nil {
				return fmt.Errorf("lookup token: %w", err)
			}
			if !found {
				return fmt.Errorf("flow token %q not found", args[0])
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}

// printResponse writes the status line and raw body, then reports non-2xx
// statuses as an error so the process exits non-zero.
func printResponse(out io.Writer, resp *flows.Response) error {
	if _, err := fmt.Fprintf(out, "HTTP %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if len(resp.Body) > 0 {
		if _, err := out.Write(resp.Body); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
		if !bytes.HasSuffix(resp.Body, []byte("\n")) {
			if _, err := fmt.Fprintln(out); err != nil {
				return fmt.Errorf("write response: %w", err)
			}
		}
	}
	return resp.Err()
}
