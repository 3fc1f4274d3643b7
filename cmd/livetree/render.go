package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/livetree/internal/errors"
	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/export"
	"github.com/vango-dev/livetree/pkg/snapshot"
)

func (c *cli) renderCmd() *cobra.Command {
	var (
		upload   string
		toConfig bool
		name     string
		markIDs  bool
	)

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a snapshot file to HTML",
		Long: `Render a snapshot file to HTML on stdout.

The snapshot is materialized into an in-memory document by a render root,
exactly as a live page would be, and the document is serialized.

With --upload the HTML is also stored in S3. Credentials come from
AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.

Examples:
  livetree render page.yaml
  livetree render page.yaml --ids
  livetree render page.yaml --upload s3://site/pages/
  livetree render page.yaml --export --name index.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], upload, toConfig, name, markIDs)
		},
	}

	cmd.Flags().StringVarP(&upload, "upload", "u", "", "Upload the HTML to s3://bucket/prefix")
	cmd.Flags().BoolVar(&toConfig, "export", false, "Upload to the bucket and prefix in the config file")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Object name (default: file name with .html)")
	cmd.Flags().BoolVar(&markIDs, "ids", false, "Write data-lt-id attributes")

	return cmd
}

func (c *cli) runRender(ctx context.Context, path, upload string, toConfig bool, name string, markIDs bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := loadSnapshot(path, snapshot.NewRegistry())
	if err != nil {
		return err
	}
	elements, interactive := snapshotStats(n)
	c.logger.Debug("snapshot loaded", "file", path, "elements", elements, "interactive", interactive)

	s := newStaticRoot("render", c.logger, c.cfg.Render.MaxPasses)
	if _, err := s.show(ctx, n); err != nil {
		return err
	}

	opts := []dom.HTMLOption{dom.Inner()}
	if markIDs {
		opts = append(opts, dom.MarkIDs())
	}
	if err := dom.WriteHTML(c.stdout, s.container, opts...); err != nil {
		return err
	}
	fmt.Fprintln(c.stdout)

	bucket, prefix, err := c.destination(upload, toConfig)
	if err != nil || bucket == "" {
		return err
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".html"
	}

	api := c.newS3(export.ClientConfig{
		Region:    c.cfg.Export.Region,
		Endpoint:  c.cfg.Export.Endpoint,
		PathStyle: c.cfg.Export.PathStyle,
	})
	exp := export.New(api, bucket, prefix, export.WithLogger(c.logger))
	key, err := exp.Export(ctx, name, s.container, opts...)
	if err != nil {
		return errors.New("E141").WithDetail("s3://" + bucket + "/" + exp.Key(name)).Wrap(err)
	}
	c.out.success("Uploaded s3://%s/%s", bucket, key)
	return nil
}

// destination resolves the upload target from --upload or --export. An
// empty bucket means no upload.
func (c *cli) destination(upload string, toConfig bool) (bucket, prefix string, err error) {
	switch {
	case upload != "":
		bucket, prefix, err = export.ParseURL(upload)
		if err != nil {
			return "", "", errors.New("E140").WithDetail(upload).Wrap(err)
		}
		return bucket, prefix, nil
	case toConfig:
		if c.cfg.Export.Bucket == "" {
			return "", "", errors.New("E140").
				WithDetail("export.bucket is not set").
				WithSuggestion("Set export.bucket in " + c.configName() + " or pass --upload s3://bucket/prefix")
		}
		prefix = c.cfg.Export.Prefix
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		return c.cfg.Export.Bucket, prefix, nil
	}
	return "", "", nil
}

func (c *cli) configName() string {
	if p := c.cfg.Path(); p != "" {
		return p
	}
	return "livetree.json"
}
