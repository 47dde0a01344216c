package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/webarch-grader/internal/domain"
	"github.com/kitbuilder587/webarch-grader/internal/validator"
)

var (
	validateExercise string
	validateMarkup   string
	validateStyle    string
	validateAnswer   string
	validateStrict   bool
)

var errNotPassed = errors.New("submission did not pass")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Grade one submission and print the result as JSON",
	Long: `Grade a single submission against its exercise rubric.

Examples:
  grader validate --exercise 1-1 --markup page.html
  grader validate --exercise 2-1 --markup page.html --style page.css
  grader validate --exercise 1-4 --answer B
  grader validate --exercise 2-3 --answer '{"target1":"drag2"}'`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateExercise, "exercise", "e", "", "exercise id, e.g. 2-1")
	validateCmd.Flags().StringVar(&validateMarkup, "markup", "", "path to the HTML file")
	validateCmd.Flags().StringVar(&validateStyle, "style", "", "path to the CSS file")
	validateCmd.Flags().StringVar(&validateAnswer, "answer", "", "inline answer for choice and drag exercises")
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "exit with status 1 when the submission does not pass")
	_ = validateCmd.MarkFlagRequired("exercise")
	validateCmd.MarkFlagsMutuallyExclusive("style", "answer")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	catalog, _, err := loadCatalog(cfg.Rubric.File)
	if err != nil {
		return err
	}

	req := domain.ValidationRequest{ExerciseID: validateExercise, Style: validateAnswer}
	if validateMarkup != "" {
		data, err := os.ReadFile(validateMarkup)
		if err != nil {
			return fmt.Errorf("read markup: %w", err)
		}
		req.Markup = string(data)
	}
	if validateStyle != "" {
		data, err := os.ReadFile(validateStyle)
		if err != nil {
			return fmt.Errorf("read style: %w", err)
		}
		req.Style = string(data)
	}

	engine := validator.New(validator.Deps{
		Rubrics: catalog,
		Browser: newLauncher(cfg, logger),
		Logger:  logger,
		Config: validator.Config{
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
		},
	})

	res := engine.Validate(cmd.Context(), req)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if validateStrict && !res.Passed {
		return errNotPassed
	}
	return nil
}
