// Package pipeline runs the monthly report batch end to end. Each stage
// finishes for every student before the next one starts; a failure stops the
// batch and leaves what was already written on disk.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/aerissecure/reportassistant/compose"
	"github.com/aerissecure/reportassistant/config"
	"github.com/aerissecure/reportassistant/dataset"
	"github.com/aerissecure/reportassistant/rawreport"
	"github.com/aerissecure/reportassistant/remark"
	"github.com/aerissecure/reportassistant/sheet"
	"github.com/aerissecure/reportassistant/snapshot"
)

// Starter is implemented by renderers that hold an external process open only
// while images are captured.
type Starter interface {
	Start(ctx context.Context) error
	Close() error
}

// Runner holds everything a batch needs.
type Runner struct {
	Config   *config.Config
	Host     sheet.Host
	Renderer sheet.Renderer
	Log      logrus.FieldLogger
}

// Result lists what a batch produced.
type Result struct {
	Period  dataset.Period
	Layout  Layout
	Raw     []string
	Images  []string
	Reports []string
}

// Run generates the reports for the master sheet at input.
func (r *Runner) Run(ctx context.Context, input string) (*Result, error) {
	cfg := r.Config
	ds, err := dataset.Load(input)
	if err != nil {
		return nil, err
	}
	period, err := ds.Period()
	if err != nil {
		return nil, err
	}
	r.Log.Infof("Generating reports for %s - %s.", period.MonthString(), period.YearString())

	supervisors, err := LoadSupervisors(cfg.SupervisorInfo)
	if err != nil {
		return nil, err
	}
	layout, err := BuildLayout(cfg.OutputRoot, period, supervisors[1])
	if err != nil {
		return nil, err
	}
	res := &Result{Period: period, Layout: layout}

	if res.Raw, err = dataset.Split(ctx, r.Host, ds, layout.Raw, r.Log); err != nil {
		return res, err
	}
	remarks, info := remark.GetInfo(ds)
	r.Log.WithField("students", len(remarks)).Info("remark list built")

	opts := rawreport.Options{WrapWidth: cfg.WrapWidth}
	if err := rawreport.FormatFiles(ctx, r.Host, res.Raw, opts, r.Log); err != nil {
		return res, err
	}

	if res.Images, err = r.capture(ctx, res.Raw, layout.Images); err != nil {
		return res, err
	}

	composer := &compose.Composer{
		Host:         r.Host,
		Template:     cfg.Template,
		OutputDir:    layout.Final,
		BusinessName: cfg.BusinessName,
		Period:       period,
		Supervisors:  supervisors,
		Remarks:      remarks,
		RemarkInfo:   info,
		Corpus:       cfg.Corpus,
		Workers:      cfg.Concurrency.Workers,
		Log:          r.Log,
	}
	if res.Reports, err = composer.Compose(ctx, res.Images); err != nil {
		return res, err
	}
	return res, nil
}

func (r *Runner) capture(ctx context.Context, raw []string, dir string) (images []string, err error) {
	if s, ok := r.Renderer.(Starter); ok {
		if err := s.Start(ctx); err != nil {
			return nil, err
		}
		defer func() {
			if cerr := s.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close renderer: %w", cerr)
			}
		}()
	}
	return snapshot.Capture(ctx, r.Host, r.Renderer, raw, dir, r.Log)
}
