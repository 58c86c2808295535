// Package images provides the CLI commands for the workspace's content
// library: listing, uploading, deleting and watching a folder for new
// images.
package images

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/somesimplify/somectl/internal/cmd/cli"
	"github.com/somesimplify/somectl/internal/errors"
	imagelib "github.com/somesimplify/somectl/internal/images"
	"github.com/somesimplify/somectl/internal/model"
)

var imagesCmd = &cobra.Command{
	Use:     "images",
	Aliases: []string{"image"},
	Short:   "Manage the workspace's content library",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded images, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload images",
	Long: `Upload one or more images. Only JPEG, PNG, GIF and WebP files up to
images.max_size_bytes (5 MiB by default) are accepted. Every file is
checked before anything is sent, so one bad file uploads nothing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an image",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Upload images as they are added to a folder",
	Long: `Watch a folder and upload every image file that is created or copied
into it. Files already in the folder are left alone. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var listMatch string

func init() {
	listCmd.Flags().StringVar(&listMatch, "match", "", "only images whose file name matches this glob, e.g. '*.png'")
}

// RegisterImagesCmd registers the images command group with the given parent command.
func RegisterImagesCmd(parent *cobra.Command) {
	imagesCmd.AddCommand(listCmd, uploadCmd, deleteCmd, watchCmd)
	parent.AddCommand(imagesCmd)
}

func newLibrary(cmd *cobra.Command) (*cli.Env, *imagelib.Library, error) {
	env, err := cli.Bootstrap(cmd)
	if err != nil {
		return nil, nil, err
	}
	sel, err := env.Tenant(cmd.Context())
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	lib := imagelib.NewLibrary(sel.Client,
		imagelib.WithMaxSize(env.Config.Images.MaxSizeBytes),
		imagelib.WithConcurrency(env.Config.Images.UploadConcurrency),
		imagelib.WithLogger(env.Logger),
		imagelib.WithBus(env.Bus),
	)
	return env, lib, nil
}

func runList(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, lib, err := newLibrary(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	imgs, err := lib.List(cmd.Context(), listMatch)
	if err != nil {
		return err
	}
	return p.Print(imgs, func(w io.Writer) error {
		if len(imgs) == 0 {
			_, err := fmt.Fprintln(w, "No images.")
			return err
		}
		return imageTable(w, imgs)
	})
}

func runUpload(cmd *cobra.Command, args []string) error {
	p, err := cli.NewPrinter(cmd)
	if err != nil {
		return err
	}
	env, lib, err := newLibrary(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	imgs, err := lib.Upload(cmd.Context(), args...)
	if err != nil {
		return err
	}
	return p.Print(imgs, func(w io.Writer) error {
		return imageTable(w, imgs)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, lib, err := newLibrary(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	if err := lib.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted image %s\n", args[0])
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, lib, err := newLibrary(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Watching %s for new images (Ctrl+C to stop)\n", args[0])

	// Uploads finish concurrently.
	var mu sync.Mutex
	return lib.Watch(ctx, args[0], func(r imagelib.WatchResult) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err != nil {
			fmt.Fprintf(w, "✗ %s: %s\n", r.Path, errors.UserMessage(r.Err))
			return
		}
		fmt.Fprintf(w, "✓ %s uploaded as %s (%s)\n", r.Path, r.Image.ID, imagelib.HumanSize(r.Image.FileSize))
	})
}

func imageTable(w io.Writer, imgs []model.Image) error {
	rows := make([][]string, len(imgs))
	for i, img := range imgs {
		created := "-"
		if !img.CreatedAt.IsZero() {
			created = img.CreatedAt.Local().Format(time.DateTime)
		}
		rows[i] = []string{img.ID, img.FileName, img.ContentType, imagelib.HumanSize(img.FileSize), created}
	}
	return cli.Table(w, []string{"ID", "FILE", "TYPE", "SIZE", "CREATED"}, rows)
}
