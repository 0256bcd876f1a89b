package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	"github.com/wheelibin/dusk/internal/client"
	"github.com/wheelibin/dusk/internal/tui"
)

var (
	addr   string
	output string

	outputFlag = cli.StringFlag{
		Name:        "output, o",
		Usage:       "output format: text, yaml or json",
		Value:       "text",
		Destination: &output,
	}
)

func main() {
	app := cli.App{
		Name:      "dusk",
		HelpName:  "dusk",
		Usage:     "control the duskd night light daemon",
		UsageText: "dusk [--addr host:port] <command> [arguments...]",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:        "addr, a",
				Usage:       "address of the duskd control API",
				Value:       "127.0.0.1:7725",
				EnvVar:      "DUSK_ADDR",
				Destination: &addr,
			},
		},
		Commands: []cli.Command{
			{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "shows the night light state",
				Flags:   []cli.Flag{outputFlag},
				Action:  status,
			},
			{
				Name:   "devices",
				Usage:  "lists the outputs and what was last sent to them",
				Flags:  []cli.Flag{outputFlag},
				Action: listDevices,
			},
			{
				Name:   "toggle",
				Usage:  "turns the night light off, or back on",
				Action: toggle,
			},
			{
				Name:      "inhibit",
				Usage:     "suspends the night light and prints a token to resume it with",
				ArgsUsage: "[NAME]",
				Action:    inhibit,
			},
			{
				Name:      "uninhibit",
				Usage:     "releases an inhibition",
				ArgsUsage: "TOKEN",
				Action:    uninhibit,
			},
			{
				Name:      "preview",
				Usage:     "shows a colour temperature for a few seconds",
				ArgsUsage: "KELVIN",
				Action:    preview,
			},
			{
				Name:   "stop-preview",
				Usage:  "ends a preview straight away",
				Action: stopPreview,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "dusk:", err)
		os.Exit(1)
	}
}

func render(value any, text func() string) error {
	switch output {
	case "yaml":
		out, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	case "json":
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "text", "":
		fmt.Print(text())
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
	return nil
}

func status(ctx *cli.Context) error {
	state, err := client.NewClient(addr).State()
	if err != nil {
		return err
	}
	return render(state, func() string { return tui.RenderStatus(state) })
}

func listDevices(ctx *cli.Context) error {
	devices, err := client.NewClient(addr).Devices()
	if err != nil {
		return err
	}
	return render(devices, func() string { return tui.RenderDevices(devices) })
}

func toggle(ctx *cli.Context) error {
	inhibited, err := client.NewClient(addr).Toggle()
	if err != nil {
		return err
	}
	if inhibited {
		fmt.Println("night light off")
	} else {
		fmt.Println("night light on")
	}
	return nil
}

func inhibit(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		name = "cli"
	}
	token, err := client.NewClient(addr).Inhibit(name)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func uninhibit(ctx *cli.Context) error {
	token := ctx.Args().First()
	if token == "" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	return client.NewClient(addr).Uninhibit(token)
}

func preview(ctx *cli.Context) error {
	kelvin, err := strconv.Atoi(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("KELVIN must be a number: %w", err)
	}
	state, err := client.NewClient(addr).Preview(kelvin)
	if err != nil {
		return err
	}
	fmt.Printf("previewing %dK\n", state.TargetTemperature)
	return nil
}

func stopPreview(ctx *cli.Context) error {
	_, err := client.NewClient(addr).StopPreview()
	return err
}
