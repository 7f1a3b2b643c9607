package cligen

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CreateGetCommands adds one command per GET operation to parent.
func (f *Factory) CreateGetCommands(parent *cobra.Command) error {
	for _, id := range f.index.OperationIDsByVerb("get") {
		cmd, err := f.CreateGetCommand(id)
		if err != nil {
			return err
		}
		f.register(parent, cmd, id)
	}
	f.attachAliases(parent)
	return nil
}

// CreateDeleteCommands adds one command per DELETE operation to parent.
func (f *Factory) CreateDeleteCommands(parent *cobra.Command) error {
	for _, id := range f.index.OperationIDsByVerb("delete") {
		cmd, err := f.CreateDeleteCommand(id)
		if err != nil {
			return err
		}
		f.register(parent, cmd, id)
	}
	f.attachAliases(parent)
	return nil
}

// CreateApplyCommands adds one command per PUT and POST operation to parent,
// in document order.
func (f *Factory) CreateApplyCommands(parent *cobra.Command) error {
	for _, id := range f.index.OperationIDs() {
		ref, err := f.index.Lookup(id)
		if err != nil {
			return err
		}
		if ref.Verb != "put" && ref.Verb != "post" {
			continue
		}
		cmd, err := f.CreateApplyCommand(id, ref.Verb)
		if err != nil {
			return err
		}
		f.register(parent, cmd, id)
	}
	f.attachAliases(parent)
	return nil
}

// register adds cmd to parent. A name already taken in the group falls back
// to the operation id.
func (f *Factory) register(parent *cobra.Command, cmd *cobra.Command, operationID string) {
	if name := cmd.Name(); hasSubcommand(parent, name) {
		f.log.Warn("command name already taken, using operation id",
			zap.String("group", parent.Name()),
			zap.String("name", name),
			zap.String("operation_id", operationID),
		)
		cmd.Use = operationID + strings.TrimPrefix(cmd.Use, name)
	}
	parent.AddCommand(cmd)
}

// attachAliases adds the configured aliases once the group is complete, so
// an alias never hides a command registered after it.
func (f *Factory) attachAliases(parent *cobra.Command) {
	for _, cmd := range parent.Commands() {
		for _, alias := range f.aliasesFor(cmd.Name()) {
			if hasSubcommand(parent, alias) || aliasTaken(parent, alias) {
				f.log.Warn("alias clashes with a command, ignoring", zap.String("group", parent.Name()), zap.String("alias", alias))
				continue
			}
			cmd.Aliases = append(cmd.Aliases, alias)
		}
	}
}

func hasSubcommand(parent *cobra.Command, name string) bool {
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return true
		}
	}
	return false
}

func aliasTaken(parent *cobra.Command, alias string) bool {
	for _, c := range parent.Commands() {
		if c.HasAlias(alias) {
			return true
		}
	}
	return false
}
