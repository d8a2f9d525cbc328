package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"filecrawl/internal/checksum"
	"filecrawl/internal/node"
	"filecrawl/internal/predicate"
	"filecrawl/internal/search"
)

type searchFlags struct {
	patterns       []string
	extensions     []string
	regexps        []string
	ignoreCase     bool
	images         bool
	fonts          bool
	archives       bool
	dirs           bool
	minSize        string
	maxSize        string
	minAge         time.Duration
	maxAge         time.Duration
	exclude        []string
	skipCommon     bool
	noHidden       bool
	follow         bool
	volumes        bool
	timeout        time.Duration
	workers        int
	bufferSize     int
	showSize       bool
	hashAlgo       string
	openInExplorer bool
}

func newSearchCmd() *cobra.Command {
	var f searchFlags
	cmd := &cobra.Command{
		Use:   "search [directories...]",
		Short: "Find files below one or more directories",
		Long: `Search crawls every directory concurrently and prints the paths that match
all given filters. Patterns are doublestar globs matched against the file name,
or against the whole path when they contain a slash.
Example: filecrawl search -p "*.txt" -p "*.doc" -e txt -e doc -i /home /usr`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.StringSliceVarP(&f.patterns, "pattern", "p", nil, "Glob patterns (can be specified multiple times)")
	fl.StringSliceVarP(&f.extensions, "ext", "e", nil, "File extensions without dot (can be specified multiple times)")
	fl.StringSliceVarP(&f.regexps, "regexp", "r", nil, "Regular expressions matched against the file name")
	fl.BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Ignore case")
	fl.BoolVar(&f.images, "images", false, "Only image files")
	fl.BoolVar(&f.fonts, "fonts", false, "Only font files")
	fl.BoolVar(&f.archives, "archives", false, "Only archive files")
	fl.BoolVar(&f.dirs, "dirs", false, "Match directories instead of files")
	fl.StringVar(&f.minSize, "min-size", "", "Minimum file size, e.g. 10MB")
	fl.StringVar(&f.maxSize, "max-size", "", "Maximum file size, e.g. 1GiB")
	fl.DurationVar(&f.minAge, "min-age", 0, "Minimum time since last modification")
	fl.DurationVar(&f.maxAge, "max-age", 0, "Maximum time since last modification")
	fl.StringSliceVarP(&f.exclude, "exclude", "x", nil, "Directory names or paths to skip")
	fl.BoolVar(&f.skipCommon, "skip-common", false, "Skip tool and system directories such as node_modules and .git")
	fl.BoolVar(&f.noHidden, "no-hidden", false, "Skip hidden files and directories")
	fl.BoolVarP(&f.follow, "follow", "L", false, "Follow symbolic links to directories")
	fl.BoolVar(&f.volumes, "volumes", false, "Crawl the whole volume of every directory")
	fl.DurationVarP(&f.timeout, "timeout", "t", 0, "Stop searching after this duration")
	fl.IntVarP(&f.workers, "workers", "w", 0, "Number of crawlers running at once (default: number of CPU cores)")
	fl.IntVarP(&f.bufferSize, "buffer", "b", 0, "Size of the result queue")
	fl.BoolVarP(&f.showSize, "size", "s", true, "Show file sizes")
	fl.StringVar(&f.hashAlgo, "hash", "", "Hash the matches with this algorithm")
	fl.BoolVarP(&f.openInExplorer, "open", "o", false, "Open the location of the first match")
	return cmd
}

func buildPredicate(f searchFlags) (predicate.Predicate, error) {
	kind := predicate.AcceptFile
	if f.dirs {
		kind = predicate.AcceptDir
	}
	preds := []predicate.Predicate{kind}

	var names []predicate.Predicate
	for _, p := range f.patterns {
		g, err := predicate.Glob(p, f.ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		names = append(names, g)
	}
	for _, r := range f.regexps {
		re, err := predicate.Regexp(r, f.ignoreCase)
		if err != nil {
			return nil, fmt.Errorf("regexp %q: %w", r, err)
		}
		names = append(names, re)
	}
	if len(f.extensions) > 0 {
		names = append(names, predicate.Suffix(f.extensions...))
	}
	if len(names) > 0 {
		preds = append(preds, predicate.Or(names...))
	}

	var kinds []predicate.Predicate
	if f.images {
		kinds = append(kinds, predicate.IsImage())
	}
	if f.fonts {
		kinds = append(kinds, predicate.IsFont())
	}
	if f.archives {
		kinds = append(kinds, predicate.IsArchive(current.cfg.Archive.Suffixes...))
	}
	if len(kinds) > 0 {
		preds = append(preds, predicate.Or(kinds...))
	}

	if f.minSize != "" {
		n, err := humanize.ParseBytes(f.minSize)
		if err != nil {
			return nil, fmt.Errorf("min-size: %w", err)
		}
		preds = append(preds, predicate.MinSize(int64(n)))
	}
	if f.maxSize != "" {
		n, err := humanize.ParseBytes(f.maxSize)
		if err != nil {
			return nil, fmt.Errorf("max-size: %w", err)
		}
		preds = append(preds, predicate.MaxSize(int64(n)))
	}
	if f.minAge > 0 {
		preds = append(preds, predicate.MinAge(f.minAge))
	}
	if f.maxAge > 0 {
		preds = append(preds, predicate.MaxAge(f.maxAge))
	}
	return predicate.And(preds...), nil
}

func searchOptions(cmd *cobra.Command, f searchFlags) search.Options {
	sc := current.cfg.Search
	fl := cmd.Flags()
	if fl.Changed("workers") {
		sc.Workers = f.workers
	}
	if fl.Changed("buffer") {
		sc.BufferSize = f.bufferSize
	}
	if fl.Changed("exclude") {
		sc.ExcludeDirs = append(sc.ExcludeDirs, f.exclude...)
	}
	if fl.Changed("skip-common") {
		sc.SkipCommonDirs = f.skipCommon
	}
	if fl.Changed("no-hidden") {
		sc.ExcludeHidden = f.noHidden
	}
	if fl.Changed("follow") {
		sc.FollowSymlinks = f.follow
	}
	if fl.Changed("volumes") {
		sc.CrawlVolumes = f.volumes
	}
	timeout := sc.Timeout()
	if fl.Changed("timeout") {
		timeout = f.timeout
	}
	return search.Options{
		Workers:        sc.Workers,
		BufferSize:     sc.BufferSize,
		CrawlVolumes:   sc.CrawlVolumes,
		ExcludeDirs:    sc.ExcludeDirs,
		SkipCommonDirs: sc.SkipCommonDirs,
		ExcludeHidden:  sc.ExcludeHidden,
		FollowSymlinks: sc.FollowSymlinks,
		Timeout:        timeout,
		FS:             current.fs,
	}
}

func runSearch(cmd *cobra.Command, args []string, f searchFlags) error {
	pred, err := buildPredicate(f)
	if err != nil {
		return err
	}
	if f.hashAlgo != "" && !checksum.Supported(f.hashAlgo) {
		return &checksum.UnknownAlgorithmError{Name: f.hashAlgo}
	}

	ctx, cancel := interruptible("Search")
	defer cancel()

	bar := progressbar.Default(-1, "Searching")
	opts := searchOptions(cmd, f)
	opts.OnMatch = func(string) { bar.Add(1) }

	start := time.Now()
	res, err := search.Search(ctx, args, pred, opts)
	bar.Finish()
	if err != nil {
		return err
	}

	for _, rootErr := range res.RootErrors {
		fmt.Fprintf(os.Stderr, "Error: %v\n", rootErr)
	}
	if err := noRootsSearched(res); err != nil {
		return err
	}

	nodes := make([]node.Node, 0, len(res.Matches))
	for _, path := range res.Matches {
		n := current.provider.New(path, nil)
		nodes = append(nodes, n)
		if f.hashAlgo == "" {
			printMatch(n, f.showSize, "")
		}
	}

	if f.hashAlgo != "" && len(nodes) > 0 {
		hashed, err := hashNodes(ctx, nodes, f.hashAlgo, false)
		if err != nil {
			return err
		}
		for _, r := range hashed.Results {
			digest := r.Digest
			if r.Err != nil {
				digest = node.HashErrorMarker
			}
			printMatch(r.Node, f.showSize, digest)
		}
	}

	fmt.Printf("\nTotal found: %s in %s\n", humanize.Comma(int64(len(res.Matches))), time.Since(start).Round(time.Millisecond))
	if res.Err != nil {
		fmt.Printf("Search stopped early (%v); the list may be incomplete\n", res.Err)
	}

	if f.openInExplorer && len(res.Matches) > 0 {
		fmt.Println("Opening file location...")
		if err := openFileLocation(res.Matches[0]); err != nil {
			fmt.Printf("Error opening file location: %v\n", err)
		}
	}
	return nil
}

// noRootsSearched fails a search in which every requested root was
// rejected.
func noRootsSearched(res *search.Result) error {
	if res.Crawlers > 0 || len(res.RootErrors) == 0 {
		return nil
	}
	if len(res.RootErrors) == 1 {
		return res.RootErrors[0]
	}
	return fmt.Errorf("none of the %d search roots could be crawled", len(res.RootErrors))
}

func printMatch(n node.Node, showSize bool, digest string) {
	line := n.Path()
	if showSize && !n.IsDir() {
		line += fmt.Sprintf(" (%s)", humanize.IBytes(uint64(max(n.Size(), 0))))
	}
	if digest != "" {
		line = digest + "  " + line
	}
	fmt.Println(line)
}

// openFileLocation opens file location in explorer
func openFileLocation(path string) error {
	path = filepath.Clean(path)
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmdPath := os.Getenv("COMSPEC")
		if cmdPath == "" {
			cmdPath = `C:\Windows\System32\cmd.exe`
		}
		cmd = exec.Command(cmdPath, "/c", "explorer", "/select,", path)
	case "darwin":
		cmd = exec.Command("open", "-R", path)
	default: // Linux and other Unix-like systems
		cmd = exec.Command("xdg-open", filepath.Dir(path))
	}

	return cmd.Run()
}
