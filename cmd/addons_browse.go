package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bnema/addonctl/internal/catalog"
	"github.com/bnema/addonctl/internal/discover"
	"github.com/bnema/addonctl/internal/netguard"
	"github.com/bnema/addonctl/internal/ui/styles"
)

var (
	browseRefresh bool
	browseAdd     []int
	browseLimit   int

	discoverAdd bool
)

var addonsBrowseCmd = &cobra.Command{
	Use:     "browse [query]",
	Aliases: []string{"search", "explore"},
	Short:   "Search the community addon catalog",
	Long: `List addons from the community catalog, optionally filtered by words
matched against name, id, description and content types. The catalog is
cached locally for catalog.ttl.

Examples:
  addonctl addons browse anime
  addonctl addons browse subtitles --add 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		cat := catalog.New(catalog.Options{
			URL:      a.cfg.CatalogURL,
			CacheDir: a.cfg.Dirs.Cache,
			TTL:      a.cfg.CatalogTTL,
			Timeout:  a.cfg.APITimeout,
			Logger:   getLogger(),
		})
		items, err := cat.Items(ctx, browseRefresh)
		if err != nil {
			return describe(err)
		}

		items = catalog.Search(items, strings.Join(args, " "))
		catalog.SortByName(items)
		catalog.MarkInstalled(items, a.editor.Entries())

		if len(browseAdd) > 0 {
			for _, n := range browseAdd {
				if n < 1 || n > len(items) {
					return fmt.Errorf("no catalog result #%d", n)
				}
				entry, err := a.editor.Add(ctx, items[n-1].TransportURL)
				if err != nil {
					fmt.Println(styles.FormatError(fmt.Sprintf("%s: %v", items[n-1].Name(), describe(err))))
					continue
				}
				fmt.Println(styles.FormatSuccess("Added " + entry.Name()))
			}
			return nil
		}

		if len(items) == 0 {
			fmt.Println("No catalog addons match")
			return nil
		}
		shown := items
		if browseLimit > 0 && len(shown) > browseLimit {
			shown = shown[:browseLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			styles.Title.Render("#"),
			styles.Title.Render("NAME"),
			styles.Title.Render("VERSION"),
			styles.Title.Render("TYPES"),
			styles.Title.Render(""),
		)
		for i, item := range shown {
			mark := styles.FormatFlags(item.Flags)
			if item.Installed {
				mark = strings.TrimSpace(mark + " " + styles.SuccessText.Render("installed"))
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				i+1,
				item.Name(),
				styles.AddonVersion.Render(item.Manifest.Version),
				styles.MutedText.Render(strings.Join(item.Manifest.Types, ",")),
				mark,
			)
		}
		_ = w.Flush()

		fmt.Printf("\n%s", styles.FormatCount(len(items), "match", "matches"))
		if len(shown) < len(items) {
			fmt.Printf(", showing first %d", len(shown))
		}
		fmt.Println("\nAdd with: addonctl addons browse " + strings.Join(args, " ") + " --add <#>")
		return nil
	},
}

var addonsDiscoverCmd = &cobra.Command{
	Use:   "discover <page-url>",
	Short: "Find manifest links on an addon's web page",
	Long: `Fetch an addon's landing or configuration page and list the manifest
links it offers, including install buttons using the app's URL scheme.

Examples:
  addonctl addons discover https://addon.example.com/configure
  addonctl addons discover https://addon.example.com/ --add`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := getApp(ctx)
		if err != nil {
			return err
		}

		scraper := discover.NewScraper(netguard.New(a.cfg.AllowPrivate), nil, getLogger())
		links, err := scraper.Scrape(ctx, args[0])
		if err != nil {
			return describe(err)
		}
		if len(links) == 0 {
			fmt.Println("No manifest links found on that page")
			return nil
		}

		for i, link := range links {
			label := link.Text
			if label == "" {
				label = "-"
			}
			fmt.Printf("%s %s\n    %s\n", styles.Highlighted.Render(strconv.Itoa(i+1)+"."), label,
				styles.MutedText.Render(link.URL))
		}

		if !discoverAdd {
			return nil
		}
		fmt.Println()
		for _, link := range links {
			entry, err := a.editor.Add(ctx, link.URL)
			if err != nil {
				fmt.Println(styles.FormatError(fmt.Sprintf("%s: %v", link.URL, describe(err))))
				continue
			}
			fmt.Println(styles.FormatSuccess("Added " + entry.Name()))
		}
		return nil
	},
}

func init() {
	addonsBrowseCmd.Flags().BoolVarP(&browseRefresh, "refresh", "r", false, "Refetch the catalog even if the cache is fresh")
	addonsBrowseCmd.Flags().IntSliceVar(&browseAdd, "add", nil, "Add the results with these numbers")
	addonsBrowseCmd.Flags().IntVarP(&browseLimit, "limit", "n", 50, "Show at most n results (0 for all)")
	addonsDiscoverCmd.Flags().BoolVar(&discoverAdd, "add", false, "Add every manifest found")
	addonsCmd.AddCommand(addonsBrowseCmd, addonsDiscoverCmd)
}
