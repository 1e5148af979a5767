package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/petermazzocco/go-presenter/internal/client"
	"github.com/petermazzocco/go-presenter/internal/ordering"
	"github.com/petermazzocco/go-presenter/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCmd(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readPassword(cmd)
				if err != nil {
					return writeErr(cmd, err)
				}
				password = p
			}
			c := client.New(app.Server, "")
			user, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := saveToken(app.TokenFile, c.Token); err != nil {
				return writeErr(cmd, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", envOr("PRESENTCTL_PASSWORD", ""), "Account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// readPassword prompts on stderr. Input is hidden when stdin is a terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your presentations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			list, err := c.ListPresentations(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No presentations yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPUBLIC\tREFRESH")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\t%t\t%dm\n", p.ID, p.Title, p.IsPublic, p.RefreshInterval)
			}
			return tw.Flush()
		},
	}
}

func newCreateCmd(app *App) *cobra.Command {
	var public bool
	var refresh int
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			in := client.NewPresentation{Title: args[0], IsPublic: public}
			if cmd.Flags().Changed("refresh") {
				in.RefreshInterval = &refresh
			}
			p, err := c.CreatePresentation(cmd.Context(), in)
			if err != nil {
				return writeErr(cmd, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Created %q\n", p.Title)
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&public, "public", false, "Allow anyone with the link to view it")
	cmd.Flags().IntVar(&refresh, "refresh", models.DefaultRefreshInterval, "Minutes between player refreshes")
	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	var title string
	var public bool
	var refresh int
	cmd := &cobra.Command{
		Use:   "update <presentation-id>",
		Short: "Change a presentation's title, visibility or refresh interval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in client.PresentationUpdate
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("public") {
				in.IsPublic = &public
			}
			if cmd.Flags().Changed("refresh") {
				in.RefreshInterval = &refresh
			}
			if in == (client.PresentationUpdate{}) {
				return writeErr(cmd, errors.New("nothing to update"))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			p, err := c.UpdatePresentation(cmd.Context(), args[0], in)
			if err != nil {
				return writeErr(cmd, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Updated %q (refresh %dm, public %t)\n", p.Title, p.RefreshInterval, p.IsPublic)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().BoolVar(&public, "public", false, "Allow anyone with the link to view it")
	cmd.Flags().IntVar(&refresh, "refresh", models.DefaultRefreshInterval, "Minutes between player refreshes")
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <presentation-id>",
		Short: "Delete a presentation and its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := c.DeletePresentation(cmd.Context(), args[0]); err != nil {
				return writeErr(cmd, err)
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "Deleted")
			return nil
		},
	}
}

func printItems(w io.Writer, items []models.PresentationItem) error {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items yet.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tTYPE\tDISPLAY\tTITLE")
	for i, it := range items {
		display := fmt.Sprintf("%dm", it.DisplayTime)
		if !it.AutoAdvances() {
			display = "manual"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, it.ID, it.Type, display, it.Title)
	}
	return tw.Flush()
}

func newItemsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "items <presentation-id>",
		Short: "Show a presentation's items in playback order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := c.ListItems(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}
}

func newAddCmd(app *App) *cobra.Command {
	var (
		itemType string
		title    string
		url      string
		file     string
		display  int
	)
	cmd := &cobra.Command{
		Use:   "add <presentation-id>",
		Short: "Append an image or dashboard to a presentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (url == "") == (file == "") {
				return writeErr(cmd, errors.New("provide exactly one of --url or --file"))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			in := client.NewItem{Type: models.ItemType(itemType), Title: title, URL: url}
			if cmd.Flags().Changed("display") {
				in.DisplayTime = &display
			}
			if file != "" {
				in.Type = models.ItemTypeImage
				if in.Title == "" {
					in.Title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
				}
				res, err := c.UploadFile(cmd.Context(), file)
				if err != nil {
					return writeErr(cmd, err)
				}
				in.URL, in.StorageKey = res.URL, res.Key
			}
			item, err := c.CreateItem(cmd.Context(), args[0], in)
			if err != nil {
				return writeErr(cmd, err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Added %q at position %d\n", item.Title, item.OrderIndex)
			return nil
		},
	}
	cmd.Flags().StringVar(&itemType, "type", string(models.ItemTypeImage), "Item type (image|powerbi)")
	cmd.Flags().StringVar(&title, "title", "", "Item title")
	cmd.Flags().StringVar(&url, "url", "", "Media or embed URL")
	cmd.Flags().StringVar(&file, "file", "", "Local image to upload")
	cmd.Flags().IntVar(&display, "display", models.DefaultDisplayTime, "Minutes on screen; 0 disables auto-advance")
	return cmd
}

func newMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <presentation-id> <from> <to>",
		Short: "Move an item to position <to>",
		Long:  "Moves the item at position <from> to position <to>. <from> may also be an item ID as printed by `items`.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return writeErr(cmd, fmt.Errorf("invalid position %q", args[2]))
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			items, err := c.ListItems(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			from, err := resolvePosition(items, args[1])
			if err != nil {
				return writeErr(cmd, err)
			}

			board := client.NewBoard(c, args[0], items)
			if err := board.Move(cmd.Context(), from, to); err != nil {
				_ = printItems(cmd.OutOrStdout(), board.Items())
				return writeErr(cmd, err)
			}
			return printItems(cmd.OutOrStdout(), board.Items())
		},
	}
}

// resolvePosition accepts either a position or an item ID.
func resolvePosition(items []models.PresentationItem, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return n, nil
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if i := ordering.IndexOf(ids, arg); i >= 0 {
		return i, nil
	}
	return 0, fmt.Errorf("no item %q in this presentation", arg)
}

func newUploadCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Compress and upload an image, printing its public URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := c.UploadFile(cmd.Context(), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.URL)
			return nil
		},
	}
}
