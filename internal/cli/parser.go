// Copyright 2025 Edgeo SCADA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// variadic marks an action flag that takes an open-ended list of values.
const variadic = -1

// actionDef describes how many values an action flag consumes and how
// they are turned into an Action.
type actionDef struct {
	kind  Kind
	shape string
	usage string
	min   int
	max   int
	build func(values []string) (Action, error)
}

var actionDefs = []actionDef{
	{
		kind:  KindReadCoil,
		shape: "addr",
		usage: "Read single coil status",
		min:   1, max: 1,
		build: func(v []string) (Action, error) {
			return ReadCoil{Address: v[0]}, nil
		},
	},
	{
		kind:  KindReadCoils,
		shape: "addr count",
		usage: "Read multiple coils",
		min:   2, max: 2,
		build: func(v []string) (Action, error) {
			return ReadCoils{Address: v[0], Count: v[1]}, nil
		},
	},
	{
		kind:  KindWriteCoil,
		shape: "addr state",
		usage: "Write single coil, state: on|off|true|false|1|0",
		min:   2, max: 2,
		build: func(v []string) (Action, error) {
			return WriteCoil{Address: v[0], State: v[1]}, nil
		},
	},
	{
		kind:  KindWriteCoils,
		shape: "addr state...",
		usage: "Write coil address/state pairs (addr1 state1 [addr2 state2 ...])",
		min:   2, max: variadic,
		build: buildWriteCoils,
	},
	{
		kind:  KindReadRegister,
		shape: "addr",
		usage: "Read single holding register",
		min:   1, max: 1,
		build: func(v []string) (Action, error) {
			return ReadRegister{Address: v[0]}, nil
		},
	},
	{
		kind:  KindReadRegisters,
		shape: "addr count",
		usage: "Read multiple holding registers",
		min:   2, max: 2,
		build: func(v []string) (Action, error) {
			return ReadRegisters{Address: v[0], Count: v[1]}, nil
		},
	},
	{
		kind:  KindWriteRegister,
		shape: "addr value",
		usage: "Write single holding register",
		min:   2, max: 2,
		build: func(v []string) (Action, error) {
			return WriteRegister{Address: v[0], Value: v[1]}, nil
		},
	},
	{
		kind:  KindWriteRegisters,
		shape: "addr value...",
		usage: "Write consecutive holding registers starting at addr (addr value1 value2 ...)",
		min:   2, max: variadic,
		build: func(v []string) (Action, error) {
			return WriteRegisters{Address: v[0], Values: append([]string(nil), v[1:]...)}, nil
		},
	},
}

func buildWriteCoils(v []string) (Action, error) {
	if len(v)%2 != 0 {
		return nil, fmt.Errorf("--%s requires an even number of values: addr1 state1 [addr2 state2 ...], got %d",
			KindWriteCoils, len(v))
	}
	coils := make([]WriteCoil, 0, len(v)/2)
	for i := 0; i+1 < len(v); i += 2 {
		coils = append(coils, WriteCoil{Address: v[i], State: v[i+1]})
	}
	return WriteCoils{Coils: coils}, nil
}

// actionFlag registers an action flag with the flag set so it shows up in
// the usage text. Its values are extracted by ParseArgs before the flag set
// sees the arguments.
type actionFlag struct {
	def *actionDef
}

func (f actionFlag) String() string { return "" }
func (f actionFlag) Type() string   { return f.def.shape }

func (f actionFlag) Set(string) error {
	return fmt.Errorf("--%s values must be passed through ParseArgs", f.def.kind)
}

func lookupAction(arg string) (def *actionDef, inline string, hasInline bool) {
	if !strings.HasPrefix(arg, "--") {
		return nil, "", false
	}
	name := arg[2:]
	if i := strings.IndexByte(name, '='); i >= 0 {
		name, inline, hasInline = name[:i], name[i+1:], true
	}
	for i := range actionDefs {
		if actionDefs[i].kind.String() == name {
			return &actionDefs[i], inline, hasInline
		}
	}
	return nil, "", false
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// ParseArgs extracts the action flags from args in command-line order and
// parses the remaining arguments with fs. Each action flag occurrence
// consumes the values following it: exactly as many as the action takes,
// or for variadic actions everything up to the next flag.
//
// pflag.ErrHelp is returned when the help flag is set.
func ParseArgs(fs *pflag.FlagSet, args []string) ([]Action, error) {
	var (
		actions []Action
		rest    []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}

		def, inline, hasInline := lookupAction(arg)
		if def == nil {
			rest = append(rest, arg)
			continue
		}

		var values []string
		if hasInline {
			values = append(values, inline)
		}
		for i+1 < len(args) && (def.max == variadic || len(values) < def.max) && !isFlag(args[i+1]) {
			i++
			values = append(values, args[i])
		}
		if len(values) < def.min {
			return nil, fmt.Errorf("--%s expects %s, got %d value(s)", def.kind, def.shape, len(values))
		}

		action, err := def.build(values)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}
	if help, err := fs.GetBool("help"); err == nil && help {
		return nil, pflag.ErrHelp
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	return actions, nil
}

// IsHelp reports whether err is the help request returned by ParseArgs.
func IsHelp(err error) bool {
	return errors.Is(err, pflag.ErrHelp)
}
