/*
Copyright © 2021 the geotraitement authors.
This file is part of geotraitement.

geotraitement is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geotraitement is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geotraitement.  If not, see <http://www.gnu.org/licenses/>.
*/

package geotraitementutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/nicolas-roelandt/geotraitement"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to geotraitement.
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
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the desired output
              shapefile (.shp) or GeoJSON (.geojson) location. It can
              include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags(), lieuxPropicesCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to the desired logfile location. It
              can include environment variables. If LogFile is left blank,
              the logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags(), lieuxPropicesCmd.Flags()},
		},
		{
			name: "CRS",
			usage: `
              CRS overrides the coordinate reference system of input layers.
              It maps parameter names to authority codes, WKT or PROJ.4
              definitions, for example {"SOURCE":"EPSG:2154"}. When
              setting this variable from the command line or an environment
              variable, the format needs to be in JSON.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags(), lieuxPropicesCmd.Flags()},
		},
		{
			name: "Source",
			usage: `
              Source is the path to the layer (shapefile or GeoJSON) whose
              features are filtered. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags()},
		},
		{
			name: "Superposition",
			usage: `
              Superposition is the path to the reference layer. Parts of the
              Source features within BufferDist of its features are kept.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags()},
		},
		{
			name: "BufferDist",
			usage: `
              BufferDist is the buffer distance around the Superposition
              features, in the units of its coordinate reference system.`,
			shorthand:  "d",
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{proximiteCmd.Flags()},
		},
		{
			name: "Gare",
			usage: `
              Gare is the path to the train station layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "EspaceV",
			usage: `
              EspaceV is the path to the green space layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "Metro",
			usage: `
              Metro is the path to the metro entrance layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "Piscine",
			usage: `
              Piscine is the path to the swimming pool layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "BufferDistGare",
			usage: `
              BufferDistGare is the buffer distance around train stations.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "BufferDistEspaceV",
			usage: `
              BufferDistEspaceV is the buffer distance around green spaces.`,
			defaultVal: 200.0,
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "BufferDistMetro",
			usage: `
              BufferDistMetro is the buffer distance around metro entrances.`,
			defaultVal: 300.0,
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "BufferDistPiscine",
			usage: `
              BufferDistPiscine is the buffer distance around swimming pools.`,
			defaultVal: 500.0,
			flagsets:   []*pflag.FlagSet{lieuxPropicesCmd.Flags()},
		},
		{
			name: "job",
			usage: `
              job specifies the location of a TOML job file describing the
              algorithm to run and its parameters.`,
			shorthand:  "j",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOTRAITEMENT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
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
	Root.AddCommand(listCmd)
	Root.AddCommand(proximiteCmd)
	Root.AddCommand(lieuxPropicesCmd)
	Root.AddCommand(runCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geotraitement: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geotraitement",
	Short: "Buffer and intersection geoprocessing algorithms.",
	Long: `geotraitement runs geoprocessing algorithms that chain buffer and
intersection operations over vector layers (shapefiles or GeoJSON files).
Use the subcommands specified below to access the algorithms.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEOTRAITEMENT_var' where 'var' is the
name of the variable to be set. Paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geotraitement.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("geotraitement v%s\n", geotraitement.Version)
	},
	DisableAutoGenTag: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available algorithms",
	Long: `list prints the identifier, name and parameters of every
available algorithm.`,
	Run: func(cmd *cobra.Command, args []string) {
		p := geotraitement.DefaultProvider()
		for _, id := range p.Algorithms() {
			alg, err := p.Algorithm(id)
			if err != nil {
				continue
			}
			cmd.Printf("%s\t%s (%s)\n", id, alg.DisplayName(), alg.Group())
			for _, def := range alg.Parameters() {
				if def.Kind == geotraitement.DistanceParameter {
					cmd.Printf("\t%s\t%v, default %g\n", def.Name, def.Kind, def.Default)
				} else {
					cmd.Printf("\t%s\t%v\n", def.Name, def.Kind)
				}
			}
		}
	},
	DisableAutoGenTag: true,
}

// proximiteCmd runs the proximite algorithm.
var proximiteCmd = &cobra.Command{
	Use:   "proximite",
	Short: "Find the source features near superposition features.",
	Long: `proximite keeps the parts of the Source features that lie within
BufferDist of any Superposition feature. Both layers must use the same
coordinate reference system.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		crs, err := GetStringMapString("CRS", Cfg)
		if err != nil {
			return err
		}
		return RunAlgorithm(
			cmd,
			"geotraitement:proximite",
			map[string]string{
				geotraitement.SourceParameter:        Cfg.GetString("Source"),
				geotraitement.SuperpositionParameter: Cfg.GetString("Superposition"),
			},
			crs,
			map[string]float64{
				geotraitement.BufferDistParameter: Cfg.GetFloat64("BufferDist"),
			},
			outputFile,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
		)
	},
	DisableAutoGenTag: true,
}

// lieuxPropicesCmd runs the lieux_propices algorithm.
var lieuxPropicesCmd = &cobra.Command{
	Use:   "lieuxpropices",
	Short: "Find the zones near stations, green spaces, metros and pools.",
	Long: `lieuxpropices finds the zones lying at the same time within
BufferDistGare of a train station, BufferDistEspaceV of a green space,
BufferDistMetro of a metro entrance and BufferDistPiscine of a swimming pool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		crs, err := GetStringMapString("CRS", Cfg)
		if err != nil {
			return err
		}
		return RunAlgorithm(
			cmd,
			"geotraitement:lieux_propices",
			map[string]string{
				geotraitement.GareParameter:    Cfg.GetString("Gare"),
				geotraitement.EspaceVParameter: Cfg.GetString("EspaceV"),
				geotraitement.MetroParameter:   Cfg.GetString("Metro"),
				geotraitement.PiscineParameter: Cfg.GetString("Piscine"),
			},
			crs,
			map[string]float64{
				geotraitement.DistanceParameterName(geotraitement.GareParameter):    Cfg.GetFloat64("BufferDistGare"),
				geotraitement.DistanceParameterName(geotraitement.EspaceVParameter): Cfg.GetFloat64("BufferDistEspaceV"),
				geotraitement.DistanceParameterName(geotraitement.MetroParameter):   Cfg.GetFloat64("BufferDistMetro"),
				geotraitement.DistanceParameterName(geotraitement.PiscineParameter): Cfg.GetFloat64("BufferDistPiscine"),
			},
			outputFile,
			checkLogFile(Cfg.GetString("LogFile"), outputFile),
		)
	},
	DisableAutoGenTag: true,
}

// runCmd runs the algorithm described in a job file.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an algorithm described in a job file.",
	Long: `run runs the algorithm described in the TOML job file given by
--job. The job file gives the algorithm identifier, the paths of its
input layers, CRS overrides, buffer distances and the output file:

	Algorithm = "geotraitement:proximite"
	Output = "out.shp"
	[Sources]
	SOURCE = "batiments.shp"
	SUPERPOSITION = "routes.shp"
	[Distances]
	BUFFERDIST = 50.0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := os.ExpandEnv(Cfg.GetString("job"))
		if path == "" {
			return fmt.Errorf("geotraitement: you need to specify a job file (for example: --job=job.toml)")
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("geotraitement: opening job file: %v", err)
		}
		j, err := ReadJob(f)
		f.Close()
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(j.Output)
		if err != nil {
			return err
		}
		return RunAlgorithm(cmd, j.Algorithm, j.Sources, j.CRS, j.Distances,
			outputFile, checkLogFile(os.ExpandEnv(j.LogFile), outputFile))
	},
	DisableAutoGenTag: true,
}
