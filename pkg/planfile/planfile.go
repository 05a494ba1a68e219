// Package planfile loads a target plan from an INI-formatted file, one
// `[target N]` section per target. Configurator is a small typed
// wrapper in front of raw key lookups, rather than callers poking at
// *ini.File directly.
package planfile

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"

	xdd "github.com/xdd-io/xdd"
	"github.com/xdd-io/xdd/pkg/target"
)

// Configurator reads target descriptors out of a loaded plan file.
type Configurator struct {
	file *ini.File
}

// Load parses path as an INI plan file.
func Load(path string) (*Configurator, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("planfile: load %s: %w", path, err)
	}
	return &Configurator{file: f}, nil
}

// TargetSections lists the section names shaped like "target N", in
// file order.
func (c *Configurator) TargetSections() []string {
	var names []string
	for _, sec := range c.file.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		n, ok := strings.CutPrefix(sec.Name(), "target ")
		if !ok {
			continue
		}
		if _, err := strconv.Atoi(n); err != nil {
			continue
		}
		names = append(names, sec.Name())
	}
	return names
}

// Target builds one *target.Target from section name.
func (c *Configurator) Target(name string) (*target.Target, error) {
	sec, err := c.file.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("planfile: section %q: %w", name, err)
	}

	t := &target.Target{
		Path:         sec.Key("path").String(),
		BlockSize:    sec.Key("block_size").MustInt64(4096),
		RequestSize:  sec.Key("request_size").MustInt64(1),
		TargetOps:    sec.Key("target_ops").MustInt64(0),
		BytesPerPass: sec.Key("bytes_per_pass").MustInt64(0),
		QueueDepth:   sec.Key("queue_depth").MustInt(1),
		StartOffset:  sec.Key("start_offset").MustInt64(0),
		TargetNumber: sec.Key("target_number").MustInt64(0),
		Passes:       sec.Key("passes").MustInt(1),
		NoSeek:       sec.Key("no_seek").MustBool(true),
	}

	if sec.Key("dio").MustBool(false) {
		t.Options |= target.OptDIO
	}
	if sec.Key("sgio").MustBool(false) {
		t.Options |= target.OptSGIO
	}
	if sec.Key("raw_reader").MustBool(false) {
		t.Options |= target.OptRawReader
	}
	if sec.Key("raw_writer").MustBool(false) {
		t.Options |= target.OptRawWriter
	}
	if sec.Key("e2e_source").MustBool(false) {
		t.Options |= target.OptE2ESource
	}
	if sec.Key("e2e_destination").MustBool(false) {
		t.Options |= target.OptE2EDestination
	}
	if sec.Key("wait_for_start").MustBool(false) {
		t.Options |= target.OptWaitForStart
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("planfile: section %q: %w: %v", name, xdd.ErrIllegalArgument, err)
	}
	return t, nil
}

// LoadPlan reads every target section in path into a new *xdd.Plan.
func LoadPlan(path string, cfg *xdd.RunConfig) (*xdd.Plan, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	plan := xdd.NewPlan(cfg)
	for _, name := range c.TargetSections() {
		t, err := c.Target(name)
		if err != nil {
			return nil, err
		}
		plan.AddTarget(t)
	}
	return plan, nil
}
