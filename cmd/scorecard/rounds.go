package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Black-And-White-Club/scorecard/app"
	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	"github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/scorecard"
	roundutil "github.com/Black-And-White-Club/scorecard/app/modules/round/utils"
	"github.com/urfave/cli/v2"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "push every unsynced round to the club",
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app.App) error {
				synced := a.RoundModule.Service.ReconcileUnsynced(ctx, roundservice.TriggerManual)
				fmt.Printf("Synced %d round(s)\n", synced)
				return nil
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "list stored rounds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "date",
				Usage: `only rounds played on this date ("2026-10-16", "yesterday", "last saturday")`,
			},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, func(ctx context.Context, a *app.App) error {
				var date string
				if raw := c.String("date"); raw != "" {
					d, err := roundutil.ParseRoundDate(raw, roundutil.RealClock{}, a.Config.Location())
					if err != nil {
						return err
					}
					date = d
				}

				rounds, err := a.RoundModule.Service.ListRounds(ctx)
				if err != nil {
					return err
				}
				printRounds(rounds, date)
				return nil
			})
		},
	}
}

func printRounds(rounds []*roundtypes.Round, date string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tDATE\tGOLFER\tSTROKES\tPOINTS\tSYNCED\tSUBMITTED")
	for _, r := range rounds {
		if date != "" && r.RoundDate != date {
			continue
		}
		strokes, points := r.Totals(roundtypes.TargetGolfer)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%t\t%t\n", r.ID, r.RoundDate, r.GolferName, strokes, points, r.IsSynced, r.IsSubmitted)
	}
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "submit a finished round to the club",
		ArgsUsage: "<round-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "golfer-signature", Usage: "golfer signature blob"},
			&cli.StringFlag{Name: "partner-signature", Usage: "marker signature blob"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("round id is required")
			}
			return withApp(c, func(ctx context.Context, a *app.App) error {
				round, err := a.RoundModule.Service.GetRound(ctx, id)
				if err != nil {
					return err
				}
				submitted, err := a.RoundModule.Service.SubmitRound(ctx, round, roundservice.Signatures{
					Golfer:  c.String("golfer-signature"),
					Partner: c.String("partner-signature"),
				})
				if err != nil {
					return err
				}
				fmt.Printf("Submitted round %s\n", submitted.ID)
				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write a round's scorecard as XLSX or a points chart as PNG",
		ArgsUsage: "<round-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "xlsx", Usage: "xlsx or png"},
			&cli.StringFlag{Name: "out", Usage: "output file (defaults to scorecard-<date>.<format>)"},
		},
		Action: func(c *cli.Context) error {
			id := c.Args().First()
			if id == "" {
				return errors.New("round id is required")
			}
			return withApp(c, func(ctx context.Context, a *app.App) error {
				round, err := a.RoundModule.Service.GetRound(ctx, id)
				if err != nil {
					return err
				}

				format := c.String("format")
				var data []byte
				switch format {
				case "xlsx":
					data, err = scorecard.BuildWorkbook(round)
				case "png":
					data, err = scorecard.PointsChart(round)
				default:
					return fmt.Errorf("unknown format %q", format)
				}
				if err != nil {
					return err
				}

				out := c.String("out")
				if out == "" {
					out = fmt.Sprintf("scorecard-%s.%s", round.RoundDate, format)
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				fmt.Printf("Wrote %s\n", out)
				return nil
			})
		},
	}
}
