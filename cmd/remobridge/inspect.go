package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/remo-bridge/internal/remo"
)

const inspectTimeout = 30 * time.Second

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List the Remo units and their latest readings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gateway, err := inspectGateway()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), inspectTimeout)
			defer cancel()

			devices := gateway.ListDevices(ctx)
			if devices == nil {
				return fmt.Errorf("listing devices failed")
			}
			return printDevices(cmd.OutOrStdout(), devices)
		},
	}
}

func newAppliancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "appliances",
		Short: "List the appliances and their learned signals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			gateway, err := inspectGateway()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), inspectTimeout)
			defer cancel()

			appliances := gateway.ListAppliances(ctx)
			if appliances == nil {
				return fmt.Errorf("listing appliances failed")
			}
			return printAppliances(cmd.OutOrStdout(), appliances)
		},
	}
}

func inspectGateway() (remo.Gateway, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newGateway(cfg, logging.New(cfg.Logging, version)), nil
}

func printDevices(out io.Writer, devices []remo.Device) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODEL\tFIRMWARE\tTEMP\tHUMIDITY\tILLUMINANCE")
	for _, d := range devices {
		ev := d.NewestEvents
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.ID, d.Name, d.Model(), d.Firmware(),
			reading(ev.Temperature), reading(ev.Humidity), reading(ev.Illuminance))
	}
	return w.Flush()
}

func printAppliances(out io.Writer, appliances []remo.Appliance) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNICKNAME\tDEVICE\tSTATE")
	for _, a := range appliances {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Type, a.Nickname, a.Device.Name, applianceState(a))
	}
	return w.Flush()
}

func applianceState(a remo.Appliance) string {
	switch a.Type {
	case remo.ApplianceTypeAC:
		if a.Settings == nil {
			return "-"
		}
		if a.Settings.PoweredOff() {
			return "off"
		}
		return fmt.Sprintf("%s %s°", a.Settings.Mode, a.Settings.Temp)
	case remo.ApplianceTypeIR:
		return strconv.Itoa(len(a.Signals)) + " signals"
	}
	return "-"
}

func reading(v *remo.SensorValue) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(v.Val, 'f', -1, 64)
}
