// Package config loads and validates the scheduler configuration file.
// Parsing is strict: unknown fields, malformed timestamps, malformed
// recurrence rules, and malformed time ranges all fail the whole load, so a
// scheduler is only ever built from a fully valid configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/me/taskplan/internal/scheduler"
	"github.com/me/taskplan/pkg/model"
	"github.com/me/taskplan/pkg/timeline"
)

// timestampLayout is the wall-clock format for window bounds and deadlines,
// interpreted in the configured time zone.
const timestampLayout = "2006-01-02 15:04"

// Config is the on-disk YAML shape.
type Config struct {
	// Timezone is an IANA zone name, e.g. "Europe/Berlin". Empty means the
	// system zone.
	Timezone string `yaml:"timezone"`

	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Granularity string `yaml:"granularity"`

	// Heuristics selects and orders the scoring functions by name. Empty
	// means the full default registry.
	Heuristics []string `yaml:"heuristics"`

	Tasks []TaskSpec `yaml:"tasks"`
	Plans []PlanSpec `yaml:"plans"`
}

// TaskSpec is one task entry. Dependencies refer to other entries by index.
type TaskSpec struct {
	Description string   `yaml:"description"`
	Deadline    string   `yaml:"deadline"`
	Priority    *float32 `yaml:"priority"` // default 1.0
	Volume      float32  `yaml:"volume"`
	DependsOn   []int    `yaml:"depends_on"`
}

// PlanSpec pairs a day-granularity cron expression with its ordered time
// blocks. Specs later in the list override earlier ones where they overlap.
type PlanSpec struct {
	Rule   string        `yaml:"rule"`
	Blocks OrderedBlocks `yaml:"blocks"`
}

// OrderedBlocks decodes a YAML mapping of "HH:MM-HH:MM" ranges to
// descriptions while preserving document order, which a plain Go map would
// lose. Order matters because overlapping blocks override earlier ones.
type OrderedBlocks []scheduler.Block

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *OrderedBlocks) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: blocks must be a mapping of \"HH:MM-HH:MM\" ranges to descriptions", node.Line)
	}
	out := make(OrderedBlocks, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, scheduler.Block{
			Range:       node.Content[i].Value,
			Description: node.Content[i+1].Value,
		})
	}
	*b = out
	return nil
}

// Inputs is the fully parsed, validated material for one scheduling run.
type Inputs struct {
	Window      timeline.Interval
	Granularity time.Duration
	Location    *time.Location
	Tasks       []model.Task
	Plans       *timeline.PlanSet
	Heuristics  []scheduler.Heuristic
}

// Load reads and strictly decodes the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse strictly decodes configuration bytes. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := newStrictDecoder(data)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Build resolves the raw configuration into scheduler inputs: zoned window,
// granularity, immutable task list, expanded plan set, and the heuristic
// registry. Every invariant violation surfaces here, before a driver exists.
func (c *Config) Build() (*Inputs, error) {
	loc, err := c.location()
	if err != nil {
		return nil, err
	}

	window, err := c.window(loc)
	if err != nil {
		return nil, err
	}

	granularity, err := time.ParseDuration(c.Granularity)
	if err != nil {
		return nil, fmt.Errorf("granularity: invalid duration %q: %w", c.Granularity, err)
	}
	if granularity <= 0 {
		return nil, fmt.Errorf("granularity: must be > 0, got %s", granularity)
	}

	tasks, err := c.tasks(loc)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateTasks(tasks); err != nil {
		return nil, err
	}

	rules := make([]scheduler.Rule, len(c.Plans))
	for i, p := range c.Plans {
		rules[i] = scheduler.Rule{Expr: p.Rule, Blocks: p.Blocks}
	}
	plans, err := scheduler.ExpandPlans(rules, window, loc)
	if err != nil {
		return nil, err
	}

	heuristics, err := c.heuristics()
	if err != nil {
		return nil, err
	}

	return &Inputs{
		Window:      window,
		Granularity: granularity,
		Location:    loc,
		Tasks:       tasks,
		Plans:       plans,
		Heuristics:  heuristics,
	}, nil
}

func (c *Config) location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) window(loc *time.Location) (timeline.Interval, error) {
	start, err := time.ParseInLocation(timestampLayout, c.Start, loc)
	if err != nil {
		return timeline.Interval{}, fmt.Errorf("start: invalid timestamp %q (want %q)", c.Start, timestampLayout)
	}
	end, err := time.ParseInLocation(timestampLayout, c.End, loc)
	if err != nil {
		return timeline.Interval{}, fmt.Errorf("end: invalid timestamp %q (want %q)", c.End, timestampLayout)
	}
	if !start.Before(end) {
		return timeline.Interval{}, fmt.Errorf("scheduling window is empty: start %s >= end %s", c.Start, c.End)
	}
	return timeline.Interval{Start: start, End: end}, nil
}

func (c *Config) tasks(loc *time.Location) ([]model.Task, error) {
	tasks := make([]model.Task, len(c.Tasks))
	for i, spec := range c.Tasks {
		deadline, err := time.ParseInLocation(timestampLayout, spec.Deadline, loc)
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): invalid deadline %q (want %q)", i, spec.Description, spec.Deadline, timestampLayout)
		}
		priority := float32(1.0)
		if spec.Priority != nil {
			priority = *spec.Priority
		}
		tasks[i] = model.Task{
			Description: spec.Description,
			Deadline:    deadline,
			Priority:    priority,
			Volume:      spec.Volume,
			DependsOn:   spec.DependsOn,
		}
	}
	return tasks, nil
}

func (c *Config) heuristics() ([]scheduler.Heuristic, error) {
	if len(c.Heuristics) == 0 {
		return scheduler.DefaultHeuristics(), nil
	}
	out := make([]scheduler.Heuristic, len(c.Heuristics))
	for i, name := range c.Heuristics {
		h, err := scheduler.HeuristicByName(name)
		if err != nil {
			return nil, fmt.Errorf("heuristics[%d]: %w", i, err)
		}
		out[i] = h
	}
	return out, nil
}
