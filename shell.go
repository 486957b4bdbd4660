package main

import (
	"errors"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/CodedInternet/goshooter/onboard"
)

var errVoltsArg = errors.New("a voltage is required, e.g. set 6.5")

func parseVolts(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, errVoltsArg
	}
	return strconv.ParseFloat(args[0], 64)
}

// voltageCmd wraps one of the shooter's voltage helpers as a shell command.
func voltageCmd(name, help string, apply func(volts float64)) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			volts, err := parseVolts(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			apply(volts)
		},
	}
}

func newShell(shooter *onboard.Shooter) *ishell.Shell {
	shell := ishell.New()
	shell.Println("Shooter development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createoperator",
		Help: "createoperator <email> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true) // yes, revert when done.

			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			if _, err := createOperator(ENV.DB, email, password); err != nil {
				c.Err(err)
				return
			}

			c.Println("Operator created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "Reads the current state of the shooter",
		Func: func(c *ishell.Context) {
			state := shooter.State()
			c.Printf("%s stored: %.2fV applied: %.2fV\n", state.Mode, state.Stored, state.Applied)
			if state.Fault != "" {
				c.Println("fault:", state.Fault)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "mode",
		Help: "Prints the operating mode",
		Func: func(c *ishell.Context) {
			c.Println(shooter.Mode())
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "toggle",
		Help: "Switches between ButtonMode and TriggerMode",
		Func: func(c *ishell.Context) {
			c.Println(shooter.ToggleMode())
		},
	})

	// TriggerMode rewrites the voltage every cycle, so these only stick in ButtonMode.
	shell.AddCmd(voltageCmd("set", "set <volts>", shooter.SetVoltage))
	shell.AddCmd(voltageCmd("add", "add <volts>", shooter.AddVoltage))
	shell.AddCmd(voltageCmd("sub", "sub <volts>", shooter.SubtractVoltage))

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "Sets the shooter voltage to zero",
		Func: func(c *ishell.Context) {
			shooter.Stop()
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "reconfigure",
		Help: "Clears faults and configures the motor controllers again",
		Func: func(c *ishell.Context) {
			if err := shooter.Reconfigure(); err != nil {
				c.Err(err)
				return
			}
			c.Println("Motor controllers configured")
		},
	})

	return shell
}
