package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moodclient/tn5250"
)

// sessionState tracks which screen the operator is looking at.
type sessionState int

const (
	stateSignOn sessionState = iota
	stateMainMenu
	stateSubmenu
	stateMessage
	stateCommand
	stateSignOff
)

// handler runs one signed-on terminal through the menu system. All state is
// session-local.
type handler struct {
	session *tn5250.Session
	config  Config
	logger  *slog.Logger

	state sessionState
	user  string

	confirmSignoff bool
}

func handleSession(config Config, logger *slog.Logger) tn5250.Handler {
	return func(ctx context.Context, session *tn5250.Session) {
		h := &handler{
			session: session,
			config:  config,
			logger:  logger.With("session", session.ID().String()),
		}

		h.run(ctx)
	}
}

func (h *handler) run(ctx context.Context) {
	if err := h.showSignOn(); err != nil {
		return
	}

	for {
		response, err := h.session.ReadResponse(ctx)
		if errors.Is(err, tn5250.ErrShortResponse) {
			// a garbled record, stay on the current screen
			continue
		}
		if err != nil {
			return
		}

		var keepGoing bool
		switch h.state {
		case stateSignOn:
			keepGoing, err = h.handleSignOn(response)
		case stateMainMenu:
			keepGoing, err = h.handleMainMenu(response)
		case stateSubmenu:
			err = h.showMainMenu()
			keepGoing = true
		case stateMessage:
			keepGoing, err = h.handleMessage(response)
		case stateCommand:
			keepGoing, err = h.handleCommand(response)
		case stateSignOff:
			return
		}

		if err != nil || !keepGoing {
			return
		}
	}
}

func (h *handler) show(state sessionState, builder *tn5250.Builder) error {
	h.state = state
	return h.session.WriteScreen(builder)
}

func (h *handler) showSignOn() error {
	return h.show(stateSignOn, signOnScreen(h.config, h.session.DeviceName()))
}

func (h *handler) showMainMenu() error {
	user := h.user
	if user == "" {
		user = "GUEST"
	}

	return h.show(stateMainMenu, mainMenuScreen(h.config, user))
}

func (h *handler) showMessage(title string, lines []string) error {
	return h.show(stateMessage, messageScreen(title, lines, false))
}

func (h *handler) showError(message, detail string) error {
	return h.show(stateMessage, errorScreen(message, detail))
}

func (h *handler) handleSignOn(response tn5250.Response) (bool, error) {
	switch response.Key {
	case "F3", "F12":
		err := h.showMessage("Sign Off", []string{"Session ended. Goodbye!"})
		h.state = stateSignOff
		return false, err
	case "ENTER":
	default:
		return true, nil
	}

	user := strings.ToUpper(strings.TrimSpace(response.Fields["user"]))
	password := strings.TrimSpace(response.Fields["password"])

	if user == "" {
		return true, h.showError("User ID is required", "")
	}

	expected, known := h.config.Users[user]
	if !known {
		return true, h.showError(fmt.Sprintf("User %s not found", user), "")
	}
	if expected != "" && password != expected {
		return true, h.showError("Password incorrect", "")
	}

	h.user = user
	h.logger.Info("user signed on", "user", user)

	if program := strings.TrimSpace(response.Fields["program"]); program != "" {
		return true, h.runProgram(program)
	}
	if menu := strings.TrimSpace(response.Fields["menu"]); menu != "" {
		return true, h.showMenu(menu)
	}

	return true, h.showMainMenu()
}

func (h *handler) handleMainMenu(response tn5250.Response) (bool, error) {
	switch response.Key {
	case "F3":
		return h.signOff()
	case "F12":
		h.confirmSignoff = true
		return true, h.showMessage("Sign Off", []string{
			"Press Enter to sign off,",
			"or F12 to return to menu.",
		})
	case "ENTER":
		command := strings.TrimSpace(response.Fields["command"])
		return h.dispatchCommand(command)
	default:
		return true, nil
	}
}

func (h *handler) handleMessage(response tn5250.Response) (bool, error) {
	if h.confirmSignoff {
		h.confirmSignoff = false
		if response.Key == "ENTER" {
			return h.signOff()
		}

		return true, h.showMainMenu()
	}

	// any key returns to the menu
	return true, h.showMainMenu()
}

func (h *handler) handleCommand(response tn5250.Response) (bool, error) {
	switch response.Key {
	case "F3", "F12":
		return true, h.showMainMenu()
	case "ENTER":
		command := strings.TrimSpace(response.Fields["command"])
		if command == "" {
			return true, h.show(stateCommand, commandEntryScreen(h.config))
		}

		h.logger.Debug("command entered", "command", command)
		return h.dispatchCommand(command)
	default:
		return true, nil
	}
}

// dispatchCommand handles a menu selection or command-line command.
func (h *handler) dispatchCommand(command string) (bool, error) {
	if command == "" {
		return true, h.showMainMenu()
	}

	upper := strings.ToUpper(command)

	switch {
	case command == "1":
		return true, h.showMessage("Work with Messages", []string{
			"No messages.", "", "Press Enter to continue.",
		})
	case command == "2":
		return true, h.showMessage("Work with Files", []string{
			"File system not implemented.", "",
			"This is a demo system.",
		})
	case command == "3":
		return true, h.showMessage("Output Queue", []string{
			"OUTQ: QPRINT", "Status: RLS", "Files: 0",
		})
	case command == "4", upper == "DSPJOB":
		return true, h.showJobStatus()
	case command == "5", upper == "WRKSYSSTS", upper == "DSPSYSSTS":
		return true, h.showSystemStatus()
	case command == "6", upper == "WRKACTJOB":
		return true, h.showActiveJobs()
	case command == "7":
		return true, h.showMessage("Spool Files", []string{"No spool files found."})
	case command == "8":
		return true, h.show(stateSubmenu, aboutScreen(h.config))
	case command == "90", upper == "SIGNOFF":
		return h.signOff()
	case strings.HasPrefix(upper, "GO "):
		return true, h.showMenu(strings.TrimSpace(upper[3:]))
	case strings.HasPrefix(upper, "?"), upper == "HELP":
		return true, h.showHelp()
	case upper == "CALL QCMD":
		return true, h.show(stateCommand, commandEntryScreen(h.config))
	default:
		return true, h.showError(
			fmt.Sprintf("Command '%s' not found", command),
			"Type a menu option number or valid command.",
		)
	}
}

func (h *handler) signOff() (bool, error) {
	h.logger.Info("user signing off", "user", h.user)

	err := h.showMessage("Sign Off", []string{
		fmt.Sprintf("User %s signed off.", h.user),
		"",
		fmt.Sprintf("System: %s", h.config.SystemName),
		"",
		"Session ended.",
	})
	h.state = stateSignOff

	return err == nil, err
}

func (h *handler) showSystemStatus() error {
	return h.showMessage("System Status", []string{
		fmt.Sprintf("System: %s", h.config.SystemName),
		"",
		"CPU Util . . . . . :     5.2 %",
		fmt.Sprintf("Active Jobs  . . . :  %7d", 1),
		"",
		"System Status: ACTIVE",
		"IPL Date/Time: 2026-01-01 00:00:00",
	})
}

func (h *handler) showActiveJobs() error {
	user := h.user
	if user == "" {
		user = "QUSER"
	}

	return h.showMessage("Active Jobs", []string{
		"Opt  Job        User        Type    Status",
		"     QINTER     QSYS        SBS     ACTIVE",
		fmt.Sprintf("     QPADEV     %-10s  INT     ACTIVE", user),
		"",
		"                                 Bottom",
		"",
		"Press Enter to continue.",
	})
}

func (h *handler) showJobStatus() error {
	user := h.user
	if user == "" {
		user = "QUSER"
	}

	return h.showMessage("Display Job Status", []string{
		fmt.Sprintf("Job: QPADEV      User: %s", user),
		"",
		"Status . . . . . : ACTIVE",
		"Type . . . . . . : INTERACTIVE",
		"Subsystem  . . . : " + h.config.Subsystem,
		"Pool . . . . . . : 1",
		"CPU Time . . . . : 00:00:00.001",
	})
}

func (h *handler) showHelp() error {
	return h.showMessage("Help", []string{
		"Available Commands:",
		"",
		"  1-8, 90    Menu options",
		"  SIGNOFF    End session",
		"  WRKSYSSTS  System status",
		"  WRKACTJOB  Active jobs",
		"  DSPJOB     Job status",
		"  GO menu    Go to menu",
		"  CALL QCMD  Command entry",
	})
}

func (h *handler) runProgram(program string) error {
	program = strings.ToUpper(program)

	return h.showMessage(fmt.Sprintf("Program %s", program), []string{
		fmt.Sprintf("Program %s not found in library list.", program),
		"",
		"Library list:",
		"  QSYS",
		"  QGPL",
		"  QTEMP",
	})
}

func (h *handler) showMenu(menu string) error {
	menu = strings.ToUpper(menu)
	if menu == "MAIN" {
		return h.showMainMenu()
	}

	return h.showMessage(fmt.Sprintf("Menu %s", menu), []string{
		fmt.Sprintf("Menu %s not found.", menu),
		"",
		"Available: MAIN",
	})
}
