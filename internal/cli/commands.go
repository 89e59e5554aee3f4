package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lelo88/inventory-api-golang/internal/entry"
	"github.com/Lelo88/inventory-api-golang/internal/items"
)

var errInvalidEntry = errors.New("entry is not valid: name, price and quantity are required")

// fieldFlags son los campos del formulario como texto libre.
var fieldFlags = []struct {
	name  string
	field entry.Field
}{
	{"name", entry.FieldName},
	{"price", entry.FieldPrice},
	{"quantity", entry.FieldQuantity},
}

func addFieldFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "item name")
	cmd.Flags().String("price", "", "item price (text, parsed on save)")
	cmd.Flags().String("quantity", "", "item quantity (text, parsed on save)")
}

// applyChangedFields copia al controller solo los flags que se pasaron.
func applyChangedFields(cmd *cobra.Command, controller *entry.Controller) {
	for _, flag := range fieldFlags {
		if !cmd.Flags().Changed(flag.name) {
			continue
		}
		value, _ := cmd.Flags().GetString(flag.name)
		controller.Update(flag.field, value)
	}
}

// commit guarda el borrador y muestra el item, o reporta que no es válido.
func (a *app) commit(cmd *cobra.Command, controller *entry.Controller, action string) error {
	start := time.Now()
	committed, err := controller.Commit(cmd.Context())
	if err != nil {
		a.logger.Error(action+" failed", "error", err)
		return err
	}
	if !committed {
		a.logger.Warn(action+" rejected", "item_details", controller.State().UIState.Details)
		return errInvalidEntry
	}

	item, _ := controller.Result()
	a.logger.Info(action, "item_id", item.ID, "duration_ms", time.Since(start).Milliseconds())
	return render(cmd.OutOrStdout(), "json", newRecord(item))
}

func (a *app) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := entry.NewController(entry.InsertWith(a.repository))
			controller.Start()
			applyChangedFields(cmd, controller)
			return a.commit(cmd, controller, "item created")
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an item (only the given fields change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := a.repository.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			controller := entry.NewController(entry.UpdateWith(a.repository))
			controller.Load(item)
			applyChangedFields(cmd, controller)
			return a.commit(cmd, controller, "item updated")
		},
	}
	addFieldFlags(cmd)
	return cmd
}

func (a *app) listCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := items.NewService(a.repository).List(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, newRecords(list))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table|json|yaml")
	return cmd
}

func (a *app) showCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := items.NewService(a.repository).Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if output == "table" {
				return render(cmd.OutOrStdout(), output, []record{newRecord(item)})
			}
			return render(cmd.OutOrStdout(), output, newRecord(item))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: table|json|yaml")
	return cmd
}

func (a *app) sellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sell <id>",
		Short: "Sell one unit of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			item, err := items.NewService(a.repository).Sell(cmd.Context(), id)
			if err != nil {
				a.logger.Warn("sell failed", "item_id", id, "error", err)
				return err
			}
			a.logger.Info("item sold", "item_id", id, "quantity", item.Quantity)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d left\n", item.Name, item.Quantity)
			return nil
		},
	}
}

func (a *app) deleteCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !force {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete item %d? (y/N): ", id)
				var answer string
				if _, err := fmt.Fscanln(cmd.InOrStdin(), &answer); err != nil || !strings.EqualFold(answer, "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "aborted")
					return nil
				}
			}
			if err := items.NewService(a.repository).Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.logger.Info("item deleted", "item_id", id)
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation")
	return cmd
}

func (a *app) exportCommand() *cobra.Command {
	var file, format string
	cmd := &cobra.Command{
		Use:   "export --file <file>",
		Short: "Export every item to a JSON or YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file required")
			}
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unsupported export format: %s", format)
			}
			list, err := a.repository.List(cmd.Context())
			if err != nil {
				return err
			}

			var payload strings.Builder
			if err := render(&payload, format, newRecords(list)); err != nil {
				return err
			}
			if err := os.WriteFile(file, []byte(payload.String()), 0o644); err != nil {
				return err
			}
			a.logger.Info("items exported", "file", file, "count", len(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "output file")
	cmd.Flags().StringVar(&format, "format", "json", "file format: json|yaml")
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := items.ParseID(value)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", value)
	}
	return id, nil
}
