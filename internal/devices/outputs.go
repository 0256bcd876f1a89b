package devices

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const temperaturePlaceholder = "{{temperature}}"

const commandTimeout = 10 * time.Second

// CommandOutput runs a shell command for every temperature, with {{temperature}} replaced by the value
type CommandOutput struct {
	logger  *log.Logger
	name    string
	command string
}

func NewCommandOutput(logger *log.Logger, name string, command string) *CommandOutput {
	return &CommandOutput{logger: logger, name: name, command: command}
}

func (o *CommandOutput) ID() string   { return "command-" + o.name }
func (o *CommandOutput) Name() string { return o.name }

// Command returns the command line that would be run for temperature
func (o *CommandOutput) Command(temperature int) string {
	return strings.ReplaceAll(o.command, temperaturePlaceholder, strconv.Itoa(temperature))
}

func (o *CommandOutput) SetTemperature(temperature int) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	line := o.Command(temperature)
	o.logger.Debug("Running output command", "name", o.name, "command", line)
	out, err := exec.CommandContext(ctx, "sh", "-c", line).CombinedOutput()
	if err != nil {
		return fmt.Errorf("Error running %q: %w (%s)", line, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// LogOutput only logs the temperatures it is given
type LogOutput struct {
	logger *log.Logger
}

func NewLogOutput(logger *log.Logger) *LogOutput {
	return &LogOutput{logger: logger}
}

func (o *LogOutput) ID() string   { return "log" }
func (o *LogOutput) Name() string { return "log" }

func (o *LogOutput) SetTemperature(temperature int) error {
	o.logger.Info("Colour temperature", "kelvin", temperature)
	return nil
}
