package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cml-linkmap/models"
	"cml-linkmap/render"
	"cml-linkmap/services"
)

type StationsCmd struct{}

func NewStationsCmd() *StationsCmd {
	return &StationsCmd{}
}

func (c *StationsCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stations",
		Short: "Map link and rain-gauge stations whose coordinates are encoded in file names",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			linksDir, err := fl.GetString("links-dir")
			if err != nil {
				return fmt.Errorf("failed to get links-dir flag: %w", err)
			}
			gaugesDir, err := fl.GetString("gauges-dir")
			if err != nil {
				return fmt.Errorf("failed to get gauges-dir flag: %w", err)
			}
			linkColor, err := fl.GetString("link-color")
			if err != nil {
				return fmt.Errorf("failed to get link-color flag: %w", err)
			}
			gaugeColor, err := fl.GetString("gauge-color")
			if err != nil {
				return fmt.Errorf("failed to get gauge-color flag: %w", err)
			}
			gridlines, err := fl.GetInt("gridlines")
			if err != nil {
				return fmt.Errorf("failed to get gridlines flag: %w", err)
			}
			if fl.Changed("out-dir") {
				if cfg.OutDir, err = fl.GetString("out-dir"); err != nil {
					return fmt.Errorf("failed to get out-dir flag: %w", err)
				}
			}
			name, err := fl.GetString("name")
			if err != nil {
				return fmt.Errorf("failed to get name flag: %w", err)
			}
			if !strings.HasSuffix(strings.ToLower(name), ".html") {
				name += ".html"
			}

			scanner := services.NewStationScanner(log)
			links, err := scanner.Scan(linksDir, models.StationLink)
			if err != nil {
				return err
			}
			gauges, err := scanner.Scan(gaugesDir, models.StationGauge)
			if err != nil {
				return err
			}

			log.Info("Number of links on map: %d", len(links))
			log.Info("Number of gauges on map: %d", len(gauges))
			log.Info("Number of stations on map: %d", len(links)+len(gauges))

			m := render.New(render.Options{
				Title:            strings.TrimSuffix(name, filepath.Ext(name)),
				CenterLat:        cfg.CenterLat,
				CenterLon:        cfg.CenterLon,
				Zoom:             cfg.Zoom,
				TilesURL:         cfg.TilesURL,
				TilesAttribution: cfg.TilesAttribution,
			})
			m.AddLayer("links", services.StationInstructions(links, linkColor))
			m.AddLayer("gauges", services.StationInstructions(gauges, gaugeColor))
			if gridlines > 0 {
				all := append(services.StationRecords(links), services.StationRecords(gauges)...)
				m.AddGrid(fmt.Sprintf("gridlines (%d)", gridlines), services.Gridlines(all, gridlines))
			}

			out := filepath.Join(cfg.OutDir, name)
			if err := m.Save(out); err != nil {
				return err
			}
			log.Info("Map under the name %s was generated", out)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.String("links-dir", "", "Directory of link files named <site>-<lat>-<lon>-<site>-<lat>-<lon>.csv")
	fl.String("gauges-dir", "", "Directory of gauge files named <a>-<b>-<id>-<lat>-<lon>.csv")
	fl.String("link-color", "red", "Color of link stations")
	fl.String("gauge-color", "blue", "Color of gauge stations")
	fl.Int("gridlines", 0, "Number of gridlines per axis; 0 disables them")
	fl.String("out-dir", "", "Directory for the output map (default CML_OUT_DIR)")
	fl.String("name", "stations_map.html", "Output map file name")
	_ = cmd.MarkFlagRequired("links-dir")
	_ = cmd.MarkFlagRequired("gauges-dir")

	return cmd
}
