// Package setup implements the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/config"
	"github.com/vadiminshakov/investtrack/internal/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultOutput file the wizard writes.
const DefaultOutput = "config.gen.yaml"

var errCancelled = errors.New("setup cancelled by user")

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// answers raw wizard input, validated field by field by the forms.
type answers struct {
	cash             string
	tick             string
	delay            string
	floor            string
	snapshotInterval string
	saveInterval     string
	stateFile        string
	walDir           string
	symbols          []string
	quantity         string
}

func defaultAnswers() answers {
	def := config.Default()
	return answers{
		cash:             def.InitialCash.String(),
		tick:             def.TickInterval.String(),
		delay:            def.InitialDelay.String(),
		floor:            def.PriceFloor.String(),
		snapshotInterval: def.SnapshotInterval.String(),
		saveInterval:     def.SaveInterval.String(),
		stateFile:        def.StateFile,
		walDir:           def.WALDir,
		quantity:         "1",
	}
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	if path == "" {
		path = DefaultOutput
	}
	a := defaultAnswers()
	listing := catalog.NewDefault()

	step := func(title string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("INVESTTRACK CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(title))
	}

	step("STEP 1: ENDOWMENT")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up a simulated portfolio.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial cash").
				Description("Virtual money the portfolio starts with").
				Value(&a.cash).
				Validate(validateNonNegativeDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: PRICE SIMULATION")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Tick interval").
				Description("Duration string (e.g. 5s, 1m)").
				Value(&a.tick).
				Validate(validatePositiveDuration),
			huh.NewInput().
				Title("Initial delay").
				Description("Wait before the first tick").
				Value(&a.delay).
				Validate(validateDuration),
			huh.NewInput().
				Title("Price floor").
				Description("No simulated price goes below it").
				Value(&a.floor).
				Validate(validatePositiveDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 3: PERSISTENCE")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("State file").
				Value(&a.stateFile).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Snapshot journal directory").
				Value(&a.walDir).
				Validate(validateNotEmpty),
			huh.NewInput().
				Title("Snapshot interval").
				Description("Minimum spacing of tick snapshots, 0s records every tick").
				Value(&a.snapshotInterval).
				Validate(validateDuration),
			huh.NewInput().
				Title("Autosave interval").
				Description("0s saves on exit only").
				Value(&a.saveInterval).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: STARTING HOLDINGS")
	options := make([]huh.Option[string], 0, listing.Len())
	for _, inst := range listing.All() {
		label := fmt.Sprintf("%-6s %s (%s, %s)", inst.Symbol, inst.Name, inst.Class, inst.Price.StringFixed(2))
		options = append(options, huh.NewOption(label, inst.Symbol))
	}
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Buy on first start (optional)").
				Options(options...).
				Height(15).
				Value(&a.symbols),
			huh.NewInput().
				Title("Quantity of each").
				Value(&a.quantity).
				Validate(validatePositiveDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	tmp, err := a.configTmp()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Cash: %s\nTick: %s (delay %s)\nFloor: %s\nState: %s\nJournal: %s\nStarting holdings: %s\n",
		a.cash, a.tick, a.delay, a.floor, a.stateFile, a.walDir, strings.Join(a.symbols, ", "),
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	var confirm bool
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errCancelled
	}

	if err := writeConfig(path, tmp); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\nConfiguration saved to %s\nStarting simulation...", path)))
	time.Sleep(1500 * time.Millisecond)
	return nil
}

// configTmp converts the answers into a config file and validates the result.
func (a answers) configTmp() (config.ConfigTmp, error) {
	tick, err := time.ParseDuration(a.tick)
	if err != nil {
		return config.ConfigTmp{}, errors.Wrap(err, "tick interval")
	}
	delay, err := time.ParseDuration(a.delay)
	if err != nil {
		return config.ConfigTmp{}, errors.Wrap(err, "initial delay")
	}
	snapshotInterval, err := time.ParseDuration(a.snapshotInterval)
	if err != nil {
		return config.ConfigTmp{}, errors.Wrap(err, "snapshot interval")
	}
	saveInterval, err := time.ParseDuration(a.saveInterval)
	if err != nil {
		return config.ConfigTmp{}, errors.Wrap(err, "autosave interval")
	}

	tmp := config.ConfigTmp{
		InitialCash:      a.cash,
		TickInterval:     tick,
		InitialDelay:     &delay,
		PriceFloor:       a.floor,
		SnapshotInterval: &snapshotInterval,
		SaveInterval:     &saveInterval,
		StateFile:        a.stateFile,
		WALDir:           a.walDir,
	}
	for _, symbol := range a.symbols {
		tmp.Bootstrap = append(tmp.Bootstrap, config.PurchaseTmp{Symbol: symbol, Quantity: a.quantity})
	}

	cfg, err := tmp.Config()
	if err != nil {
		return config.ConfigTmp{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.ConfigTmp{}, err
	}

	return tmp, nil
}

func writeConfig(path string, tmp config.ConfigTmp) error {
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}

func validateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration like 30s or 5m")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePositiveDuration(s string) error {
	if err := validateDuration(s); err != nil {
		return err
	}
	if d, _ := time.ParseDuration(s); d == 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func validateNonNegativeDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.New("must be a valid number")
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}
