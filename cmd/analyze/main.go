package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cvmatch-console/internal/analysis"
	"cvmatch-console/internal/results"
	"cvmatch-console/internal/selection"
	"cvmatch-console/internal/session"
	"cvmatch-console/internal/shared/config"
	"cvmatch-console/internal/shared/telemetry"
	"cvmatch-console/internal/views"
)

// pathList collects a repeatable flag.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("empty path")
	}
	*p = append(*p, v)
	return nil
}

type options struct {
	analyzer  string
	jd        string
	cvs       pathList
	direction string
	detail    string
	quiet     bool
}

func main() {
	cfg := config.Load()
	// Progress goes to stderr too; keep request logs out of it unless debugging.
	level := "warn"
	if cfg.LogLevel == "debug" {
		level = cfg.LogLevel
	}
	telemetry.Init(level, "console")
	defer telemetry.Sync()

	opts, err := parseFlags(os.Args[1:], cfg.AnalyzerBaseURL)
	if err != nil {
		exitErr(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := analysis.NewClient(opts.analyzer, cfg.AnalyzerConnectTimeout, cfg.AnalyzerTimeout)
	if err := run(ctx, client, opts, os.Stdout, os.Stderr); err != nil {
		exitErr(err.Error())
	}
}

func parseFlags(args []string, defaultAnalyzer string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.StringVar(&opts.analyzer, "analyzer", defaultAnalyzer, "Analysis service base URL")
	fs.StringVar(&opts.jd, "jd", "", "Path to the job description (pdf)")
	fs.Var(&opts.cvs, "cv", "Path to a CV (pdf or docx); repeat for more")
	fs.StringVar(&opts.direction, "sort", string(results.Desc), "Score order: asc or desc")
	fs.StringVar(&opts.detail, "detail", "", "Participant id to show reasons for")
	fs.BoolVar(&opts.quiet, "quiet", false, "Do not print progress")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.cvs = append(opts.cvs, fs.Args()...)
	if _, ok := results.ParseDirection(opts.direction); !ok {
		return options{}, fmt.Errorf("unsupported sort direction: %s", opts.direction)
	}
	return opts, nil
}

// run submits the selection, prints progress to progressOut and the final
// table to out. Errors already shown as a banner are still returned so the
// exit status is non-zero.
func run(ctx context.Context, submitter analysis.Submitter, opts options, out, progressOut io.Writer) error {
	var model selection.Model
	if opts.jd != "" {
		jd, err := selection.ReadFile(opts.jd)
		if err != nil {
			return err
		}
		if err := model.SetJobDescription(jd); err != nil {
			return errors.New(analysis.UserMessage(err))
		}
	}

	files := make([]selection.File, 0, len(opts.cvs))
	for _, path := range opts.cvs {
		f, err := selection.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if ignored := model.SetCVs(files); len(ignored) > 0 {
		fmt.Fprintf(progressOut, "%s: %s\n", selection.IgnoredFilesMessage, strings.Join(ignored, ", "))
	}

	if !opts.quiet {
		fmt.Fprintln(progressOut, model.Describe())
	}

	var jdPtr *selection.File
	if jd, ok := model.JobDescription(); ok {
		jdPtr = &jd
	}
	cvs := model.CVs()
	if err := analysis.CheckInputs(jdPtr, cvs); err != nil {
		return errors.New(analysis.UserMessage(err))
	}

	const seq = 1
	state := session.State{}.Begin(seq)
	snap := func() session.Snapshot {
		return session.Snapshot{State: state, Selection: model.Describe()}
	}

	stream, err := submitter.Submit(ctx, jdPtr, cvs)
	var rs []analysis.Result
	if err == nil {
		rs, err = stream.Results(func(p analysis.Progress) {
			state, _ = state.ApplyProgress(seq, p)
			if opts.quiet {
				return
			}
			if page := views.BuildPage(snap()); page.Loader != nil {
				_ = views.WriteProgress(progressOut, *page.Loader)
			}
		})
	}
	if err != nil {
		state, _ = state.Fail(seq, err)
		_ = views.WriteText(out, views.BuildPage(snap()))
		return fmt.Errorf("analysis failed (%s)", analysis.Code(err))
	}

	state, _ = state.Complete(seq, rs)
	dir, _ := results.ParseDirection(opts.direction)
	state = state.Sort(results.SortByScore, dir)
	if opts.detail != "" {
		state = state.Select(opts.detail)
	}
	return views.WriteText(out, views.BuildPage(snap()))
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
