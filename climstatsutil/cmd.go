/*
Copyright © 2026 the climstats authors.
This file is part of climstats.

climstats is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

climstats is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with climstats.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package climstatsutil contains the climstats command-line interface.
package climstatsutil

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/climstats"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// repeated is the default value type of options that can be given more
// than once and whose values may contain commas.
type repeated []string

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file to copy log messages to. If it is
              empty, messages are only printed.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CacheDir",
			usage: `
              CacheDir is the directory downloaded input files are kept in so
              later runs can reuse them. If it is empty, inputs are downloaded
              to a temporary directory on every run.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Retries",
			usage: `
              Retries is the maximum number of times a failed download or
              upload is retried.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "variable",
			usage: `
              variable specifies the variables to process. For the stats
              command, every data variable is processed if none are given.
              The filter command takes a single station variable.`,
			shorthand:  "v",
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output specifies the path of the output netCDF file. It may
              be a blob storage path such as gs://bucket/out.nc.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags(), filterCmd.Flags()},
		},
		{
			name: "aggregation",
			usage: `
              aggregation specifies how time steps are grouped: day, month,
              season, year, yearmonth or yearseason.`,
			shorthand:  "a",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "statistic",
			usage: `
              statistic specifies the statistic computed for each group,
              with any parameters following its name, separated by commas,
              e.g. "mean", "percentile,90", "days_above,30" or
              "window_sum_above,5,100".`,
			shorthand:  "s",
			defaultVal: "mean",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "tolerance",
			usage: `
              tolerance is the minimum fraction (0 to 1) of valid values a
              group needs for its result to be valid.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "scale",
			usage: `
              scale multiplies every value before the statistic is computed.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "offset",
			usage: `
              offset is added to every value, after scaling, before the
              statistic is computed.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "units",
			usage: `
              units specifies the units of the results. If scale and offset
              are not set, values are converted from the units of the
              source variable.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "subset",
			usage: `
              subset restricts a coordinate to a range of values, in the
              form role=lo,hi, e.g. time=1980-01-01,2009-12-31 or
              latitude=-40,-10. It can be given more than once.`,
			defaultVal: repeated{},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "derive",
			usage: `
              derive adds a variable computed from others before the
              statistic is computed, in the form name=expression, e.g.
              "tmean=(tmax+tmin)/2". It can be given more than once.`,
			defaultVal: repeated{},
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "name",
			usage: `
              name specifies the name of the result variable. The default is
              <variable>_<statistic>.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{statsCmd.Flags()},
		},
		{
			name: "start",
			usage: `
              start is the first date of the period to keep.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "end",
			usage: `
              end is the last date of the period to keep.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "threshold",
			usage: `
              threshold is the minimum percentage of valid values a station
              needs within the period to be kept.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "elevation-min",
			usage: `
              elevation-min is the lowest station elevation to keep.`,
			defaultVal: math.Inf(-1),
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "elevation-max",
			usage: `
              elevation-max is the highest station elevation to keep.`,
			defaultVal: math.Inf(1),
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CLIMSTATS")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case repeated:
				set.StringArrayP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(statsCmd)
	Root.AddCommand(filterCmd)
	Root.AddCommand(describeCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("climstats: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// repeatedOption returns the values of an option of type repeated. The
// values come from the command line if the flag was given there and
// from the configuration file otherwise.
func repeatedOption(cmd *cobra.Command, name string) ([]string, error) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		return cmd.Flags().GetStringArray(name)
	}
	if !Cfg.InConfig(name) {
		return nil, nil
	}
	return cast.ToStringSliceE(Cfg.Get(name))
}

// logger creates a logger writing to w from the LogLevel and LogFile
// options.
func logger(w io.Writer) (*logrus.Logger, func() error, error) {
	return NewLogger(w, Cfg.GetString("LogLevel"), os.ExpandEnv(Cfg.GetString("LogFile")))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "climstats",
	Short: "Climate statistics from netCDF datasets.",
	Long: `climstats computes statistics of gridded and station climate data
over groups of time steps, such as monthly means or yearly counts of hot days.
Use the subcommands specified below to access its functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CLIMSTATS_var' where 'var'
is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of climstats.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("climstats v%s\n", climstats.Version)
	},
	DisableAutoGenTag: true,
}

var statsCmd = &cobra.Command{
	Use:   "stats SOURCE",
	Short: "Compute a statistic over groups of time steps.",
	Long: `stats groups the time steps of the variables of the SOURCE dataset
by the chosen aggregation, computes the chosen statistic for each group and
writes the results to the output dataset.`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := logger(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeLog()
		subset, err := repeatedOption(cmd, "subset")
		if err != nil {
			return stageErr(StageConfig, "subset", err)
		}
		derive, err := repeatedOption(cmd, "derive")
		if err != nil {
			return stageErr(StageConfig, "derive", err)
		}
		return Stats(context.Background(), StatsConfig{
			Source:      os.ExpandEnv(args[0]),
			Output:      os.ExpandEnv(Cfg.GetString("output")),
			Variables:   Cfg.GetStringSlice("variable"),
			Aggregation: Cfg.GetString("aggregation"),
			Statistic:   Cfg.GetString("statistic"),
			Tolerance:   Cfg.GetFloat64("tolerance"),
			Scale:       Cfg.GetFloat64("scale"),
			Offset:      Cfg.GetFloat64("offset"),
			Units:       Cfg.GetString("units"),
			Subset:      subset,
			Derive:      derive,
			Name:        Cfg.GetString("name"),
			History:     strings.Join(os.Args, " "),
			CacheDir:    os.ExpandEnv(Cfg.GetString("CacheDir")),
			Retries:     Cfg.GetInt("Retries"),
		}, log)
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter SOURCE",
	Short: "Select stations with enough valid data.",
	Long: `filter keeps the stations of the SOURCE dataset that have at least
the threshold percentage of valid values of the station variable within the
period from start to end, and whose elevation is within the given range, and
writes them with that period to the output dataset.`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := logger(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer closeLog()
		vars := Cfg.GetStringSlice("variable")
		if len(vars) != 1 {
			return stageErr(StageConfig, "variable",
				fmt.Errorf("filter takes one station variable, not %d: %w", len(vars), climstats.ErrConfiguration))
		}
		return Filter(context.Background(), FilterConfig{
			Source:       os.ExpandEnv(args[0]),
			Output:       os.ExpandEnv(Cfg.GetString("output")),
			Variable:     vars[0],
			Start:        Cfg.GetString("start"),
			End:          Cfg.GetString("end"),
			Threshold:    Cfg.GetFloat64("threshold"),
			ElevationMin: Cfg.GetFloat64("elevation-min"),
			ElevationMax: Cfg.GetFloat64("elevation-max"),
			History:      strings.Join(os.Args, " "),
			CacheDir:     os.ExpandEnv(Cfg.GetString("CacheDir")),
			Retries:      Cfg.GetInt("Retries"),
		}, log)
	},
}

var describeCmd = &cobra.Command{
	Use:               "describe SOURCE",
	Short:             "Describe the contents of a dataset.",
	Long:              `describe prints the dimensions, variables, attributes and coordinate roles of the SOURCE dataset.`,
	Args:              cobra.ExactArgs(1),
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := logger(os.Stderr)
		if err != nil {
			return err
		}
		defer closeLog()
		return Describe(context.Background(), os.ExpandEnv(args[0]),
			os.ExpandEnv(Cfg.GetString("CacheDir")), Cfg.GetInt("Retries"), cmd.OutOrStdout(), log)
	},
}
