package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/fsutil"
	"github.com/vk/fieldgo/internal/session"
	"github.com/vk/fieldgo/internal/writer"
)

// Run loads every document named by the configuration. Each document is
// resolved into its own session; a rejected document does not stop the
// others, and all failures are returned together.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "path", a.config.DocPath)

	paths, err := fsutil.FindDocuments(a.fs, a.config.DocPath)
	if err != nil {
		return fmt.Errorf("failed to find documents: %w", err)
	}
	if len(paths) == 0 {
		a.logger.Warn("No documents found.", "path", a.config.DocPath)
		return nil
	}
	a.logger.Debug("Documents found.", "count", len(paths))

	var result *multierror.Error
	var summaries []*DocumentSummary
	for _, p := range paths {
		sess, err := a.load(ctx, p)
		if err != nil {
			a.logger.Error("Document rejected.", "path", p, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", p, err))
			continue
		}
		a.logger.Info("Document resolved.", "path", p, "region", sess.Region(), "handles", sess.Len())

		if a.config.Dump != "" {
			if err := a.dump(sess, p); err != nil {
				return fmt.Errorf("failed to write %s: %w", p, err)
			}
			continue
		}
		summaries = append(summaries, summarize(p, sess, a.config.All))
	}

	if a.config.Dump == "" {
		if err := a.print(summaries); err != nil {
			return err
		}
	}

	a.logger.Debug("App.Run method finished.")
	return result.ErrorOrNil()
}

// dump writes the local objects of sess in the configured format.
func (a *App) dump(sess *session.Session, path string) error {
	opts := writer.Options{Dir: filepath.Dir(path)}
	switch a.config.Dump {
	case DumpHCL:
		return writer.WriteHCL(a.outW, sess, opts)
	default:
		return writer.WriteXML(a.outW, sess, opts)
	}
}
