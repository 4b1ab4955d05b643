package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"inliner/compliance"
	"inliner/state"
)

type clientEntry struct {
	Client string `yaml:"client"`
	Level  string `yaml:"level"`
}

type propertyEntry struct {
	Property string        `yaml:"property"`
	Failing  int           `yaml:"failing"`
	Support  []clientEntry `yaml:"support"`
}

func describeProperty(name string, cells []compliance.ClientSupport) propertyEntry {
	entry := propertyEntry{Property: name, Support: make([]clientEntry, 0, len(cells))}
	for _, c := range cells {
		if c.Level.Fails() {
			entry.Failing++
		}
		entry.Support = append(entry.Support, clientEntry{Client: c.Client, Level: c.Level.String()})
	}
	return entry
}

// collectCompliance returns entries for requested properties, or for the
// whole table when none requested, and the list of unknown ones.
func collectCompliance(table *compliance.Table, props []string) ([]propertyEntry, []string) {
	if len(props) == 0 {
		props = table.Properties()
	}
	var (
		entries []propertyEntry
		unknown []string
	)
	for _, p := range props {
		name := strings.ToLower(strings.TrimSpace(p))
		cells, ok := table.Lookup(name)
		if !ok {
			unknown = append(unknown, p)
			continue
		}
		entries = append(entries, describeProperty(name, cells))
	}
	return entries, unknown
}

func outputCompliance(ctx context.Context, cmd *cli.Command) error {

	env := state.EnvFromContext(ctx)

	if err := env.LoadTable(); err != nil {
		return fmt.Errorf("unable to load compliance table: %w", err)
	}

	entries, unknown := collectCompliance(env.Table, cmd.Args().Slice())
	if len(unknown) > 0 {
		env.Log.Warn("Properties are not known to compliance table", zap.Strings("properties", unknown))
	}
	if len(entries) == 0 {
		return nil
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("unable to format compliance data: %w", err)
	}
	if _, err = os.Stdout.Write(data); err != nil {
		return fmt.Errorf("unable to write compliance data: %w", err)
	}
	return nil
}
