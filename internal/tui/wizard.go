package tui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// FieldType is the kind of value a WizardField collects, which
// determines how RunWizard renders and edits it.
type FieldType int

const (
	FieldTypeSelect   FieldType = iota // arrow-key pick from Options, e.g. log format
	FieldTypeYesNo                     // two-option Yes/No, e.g. debug logging
	FieldTypeText                      // plain text, e.g. host
	FieldTypePassword                  // masked text, e.g. bot token
)

// WizardField is one row of runSetupWizard's single-page form.
type WizardField struct {
	ID          string
	Label       string
	Description string
	Type        FieldType
	Options     []MenuItem // populated for FieldTypeSelect; FieldTypeYesNo fills its own Yes/No pair
	Required    bool
	Value       string // current display value
	ValueIndex  int    // selected option index, for FieldTypeSelect/FieldTypeYesNo
	Skip        bool
}

// WizardResult holds the values RunWizard collected, keyed by WizardField.ID.
type WizardResult struct {
	Values map[string]interface{}
}

// RunWizard renders every field on one page at once and lets the
// operator move between them with arrow keys, editing in place. Falls
// back to a sequential non-TTY prompt when stdin isn't a terminal.
func RunWizard(title string, fields []WizardField) (*WizardResult, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields provided")
	}

	var activeFields []WizardField
	for _, f := range fields {
		if !f.Skip {
			activeFields = append(activeFields, f)
		}
	}
	if len(activeFields) == 0 {
		return nil, fmt.Errorf("all fields skipped")
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runWizardFallback(title, activeFields)
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return runWizardFallback(title, activeFields)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	current := 0
	editing := false
	editSelected := 0 // highlighted option while editing a select/yes-no field

	reader := bufio.NewReader(os.Stdin)

	for i := range activeFields {
		if activeFields[i].Type == FieldTypeYesNo && len(activeFields[i].Options) == 0 {
			activeFields[i].Options = []MenuItem{
				{Label: "Yes", Value: "yes"},
				{Label: "No", Value: "no"},
			}
		}
	}

	// each field renders on 2 lines (label+value, description); header
	// is 3 lines, footer is 2.
	maxLines := 3 + len(activeFields)*2 + 2

	fmt.Print("\033[?25l")
	defer fmt.Print("\033[?25h")

	firstRender := true

	renderWizard := func() {
		if !firstRender {
			fmt.Printf("\033[%dA", maxLines)
		}
		firstRender = false

		fmt.Print("\033[2K\r")
		fmt.Printf("%s%s%s%s\n", ColorBold, ColorCyan, title, ColorReset)
		fmt.Print("\033[2K\r")
		fmt.Printf("%s%s%s\n", ColorDim, strings.Repeat("─", 50), ColorReset)
		fmt.Print("\033[2K\r\n")

		for i, f := range activeFields {
			isSelected := i == current

			fmt.Print("\033[2K\r")
			prefix := "  "
			if isSelected {
				prefix = fmt.Sprintf("%s❯%s ", ColorGreen, ColorReset)
			}

			valueDisplay := f.Value
			if valueDisplay == "" {
				valueDisplay = fmt.Sprintf("%s(not set)%s", ColorDim, ColorReset)
			} else if f.Type == FieldTypePassword {
				valueDisplay = "••••••••"
			}

			fmt.Printf("%s%s%s:%s %s\n", prefix, ColorBold, f.Label, ColorReset, valueDisplay)

			fmt.Print("\033[2K\r")
			if isSelected && f.Description != "" {
				fmt.Printf("    %s%s%s\n", ColorDim, f.Description, ColorReset)
			} else {
				fmt.Print("\n")
			}
		}

		fmt.Print("\033[2K\r\n")
		fmt.Print("\033[2K\r")
		if editing {
			fmt.Printf("  %s[↑/↓] Select  [Enter] Confirm  [Esc] Back%s\n", ColorDim, ColorReset)
		} else {
			fmt.Printf("  %s[↑/↓] Navigate  [Enter] Edit  [Space] Submit  [q] Quit%s\n", ColorDim, ColorReset)
		}
	}

	// renderEditOptions draws the option list under the field being
	// edited, for both FieldTypeSelect and FieldTypeYesNo.
	renderEditOptions := func(options []MenuItem, selected int) {
		fmt.Print("\n")
		for i, opt := range options {
			fmt.Print("\033[2K\r")
			if i == selected {
				fmt.Printf("      %s❯%s %s%s%s\n", ColorGreen, ColorReset, ColorBold, opt.Label, ColorReset)
			} else {
				fmt.Printf("        %s\n", opt.Label)
			}
		}
		fmt.Print("\033[2K\r")
		fmt.Printf("  %s[↑/↓] Select  [Enter] Confirm  [Esc] Back%s", ColorDim, ColorReset)
	}

	clearEditOptions := func(numOptions int) {
		fmt.Printf("\033[%dA", numOptions+1)
		for i := 0; i < numOptions+1; i++ {
			fmt.Print("\033[2K\r\n")
		}
		fmt.Printf("\033[%dA", numOptions+1)
	}

	renderWizard()

	for {
		b, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}

		if editing {
			f := &activeFields[current]
			switch b {
			case 27: // escape, or the lead byte of an arrow-key sequence
				next, _ := reader.ReadByte()
				if next == '[' {
					arrow, _ := reader.ReadByte()
					switch arrow {
					case 'A':
						if editSelected > 0 {
							editSelected--
							clearEditOptions(len(f.Options))
							renderEditOptions(f.Options, editSelected)
						}
					case 'B':
						if editSelected < len(f.Options)-1 {
							editSelected++
							clearEditOptions(len(f.Options))
							renderEditOptions(f.Options, editSelected)
						}
					}
					continue
				}
				clearEditOptions(len(f.Options))
				editing = false
				firstRender = true
				renderWizard()
				continue
			case 13: // Enter confirms the highlighted option
				f.Value = f.Options[editSelected].Label
				f.ValueIndex = editSelected
				clearEditOptions(len(f.Options))
				editing = false
				if current < len(activeFields)-1 {
					current++
				}
				firstRender = true
				renderWizard()
			case 'k':
				if editSelected > 0 {
					editSelected--
					clearEditOptions(len(f.Options))
					renderEditOptions(f.Options, editSelected)
				}
			case 'j':
				if editSelected < len(f.Options)-1 {
					editSelected++
					clearEditOptions(len(f.Options))
					renderEditOptions(f.Options, editSelected)
				}
			}
		} else {
			switch b {
			case 'q':
				fmt.Print("\n")
				return nil, fmt.Errorf("cancelled")
			case 27:
				next, _ := reader.ReadByte()
				if next == '[' {
					arrow, _ := reader.ReadByte()
					switch arrow {
					case 'A':
						if current > 0 {
							current--
							renderWizard()
						}
					case 'B':
						if current < len(activeFields)-1 {
							current++
							renderWizard()
						}
					}
					continue
				}
				fmt.Print("\n")
				return nil, fmt.Errorf("cancelled")
			case 'k':
				if current > 0 {
					current--
					renderWizard()
				}
			case 'j':
				if current < len(activeFields)-1 {
					current++
					renderWizard()
				}
			case 9: // Tab advances to the next field
				if current < len(activeFields)-1 {
					current++
					renderWizard()
				}
			case 13: // Enter opens the current field for editing
				f := &activeFields[current]
				switch f.Type {
				case FieldTypeSelect, FieldTypeYesNo:
					editing = true
					editSelected = f.ValueIndex
					renderEditOptions(f.Options, editSelected)
				case FieldTypeText, FieldTypePassword:
					fmt.Print("\033[?25h")
					term.Restore(int(os.Stdin.Fd()), oldState)

					prompt := fmt.Sprintf("\n  %s: ", f.Label)
					var val string
					if f.Type == FieldTypePassword {
						fmt.Print(prompt)
						password, _ := term.ReadPassword(int(os.Stdin.Fd()))
						val = strings.TrimSpace(string(password))
						fmt.Println()
					} else {
						fmt.Print(prompt)
						lineReader := bufio.NewReader(os.Stdin)
						val, _ = lineReader.ReadString('\n')
						val = strings.TrimSpace(val)
					}
					f.Value = val

					oldState, _ = term.MakeRaw(int(os.Stdin.Fd()))
					fmt.Print("\033[?25l")
					if current < len(activeFields)-1 {
						current++
					}
					firstRender = true
					renderWizard()
				}
			case ' ': // Space submits the whole form
				result := &WizardResult{
					Values: make(map[string]interface{}),
				}
				for _, f := range activeFields {
					switch f.Type {
					case FieldTypeYesNo:
						result.Values[f.ID] = f.Value == "Yes"
					case FieldTypeSelect:
						result.Values[f.ID] = f.ValueIndex
						result.Values[f.ID+"_value"] = f.Value
					default:
						result.Values[f.ID] = f.Value
					}
				}
				fmt.Print("\n")
				return result, nil
			}
		}
	}
}

// runWizardFallback prompts for each field sequentially, for piped
// input or a non-TTY stdin where RunWizard's raw-mode rendering can't run.
func runWizardFallback(title string, fields []WizardField) (*WizardResult, error) {
	fmt.Printf("\n%s%s%s%s\n", ColorBold, ColorCyan, title, ColorReset)
	fmt.Printf("%s%s%s\n\n", ColorDim, strings.Repeat("─", 50), ColorReset)

	result := &WizardResult{
		Values: make(map[string]interface{}),
	}

	reader := bufio.NewReader(os.Stdin)
	for _, f := range fields {
		fmt.Printf("%s%s:%s ", ColorBold, f.Label, ColorReset)
		if f.Description != "" {
			fmt.Printf("%s(%s)%s ", ColorDim, f.Description, ColorReset)
		}

		switch f.Type {
		case FieldTypeYesNo:
			fmt.Print("[y/n]: ")
			input, _ := reader.ReadString('\n')
			input = strings.TrimSpace(strings.ToLower(input))
			result.Values[f.ID] = input == "y" || input == "yes"
		case FieldTypeSelect:
			fmt.Println()
			for i, opt := range f.Options {
				fmt.Printf("  [%d] %s\n", i+1, opt.Label)
			}
			fmt.Print("Enter number: ")
			input, _ := reader.ReadString('\n')
			var num int
			_, _ = fmt.Sscanf(strings.TrimSpace(input), "%d", &num)
			if num >= 1 && num <= len(f.Options) {
				result.Values[f.ID] = num - 1
				result.Values[f.ID+"_value"] = f.Options[num-1].Label
			} else {
				result.Values[f.ID] = 0
			}
		case FieldTypePassword:
			if term.IsTerminal(int(os.Stdin.Fd())) {
				password, _ := term.ReadPassword(int(os.Stdin.Fd()))
				result.Values[f.ID] = strings.TrimSpace(string(password))
				fmt.Println()
			} else {
				input, _ := reader.ReadString('\n')
				result.Values[f.ID] = strings.TrimSpace(input)
			}
		default:
			input, _ := reader.ReadString('\n')
			result.Values[f.ID] = strings.TrimSpace(input)
		}
	}

	return result, nil
}
