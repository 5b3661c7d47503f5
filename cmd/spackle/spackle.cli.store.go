package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-spackle"
)

func newStoreCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameStore,
		Short: StoreShort,
	}
	cmd.AddCommand(
		newStorePutCommand(a),
		newStoreGetCommand(a),
		newStoreListCommand(a),
		newStoreDeleteCommand(a),
	)
	return cmd
}

func newStorePutCommand(a *app) *cobra.Command {
	var (
		templatePath string
		dataPath     string
		tags         []string
		createdBy    string
	)

	cmd := &cobra.Command{
		Use:   CmdNamePut + " <name>",
		Short: PutShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templatePath == "" {
				return usageError(ErrMsgMissingTemplate)
			}
			source, err := readInput(templatePath, a.streams.in)
			if err != nil {
				return inputError(ErrMsgReadFileFailed, err)
			}
			subs, err := loadData(dataPath)
			if err != nil {
				return err
			}

			storage, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			tmpl := &spackle.StoredTemplate{
				Name:          args[0],
				Source:        string(source),
				Substitutions: subs,
				CreatedBy:     createdBy,
				Tags:          splitTags(tags),
			}
			if err := storage.Save(cmd.Context(), tmpl); err != nil {
				return failure(ErrMsgStorageFailed, err)
			}
			fmt.Fprintf(a.streams.out, PutTextTemplate, tmpl.Name, tmpl.Version, tmpl.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&templatePath, FlagTemplate, FlagTemplateShort, "", UsageTemplate)
	f.StringVarP(&dataPath, FlagData, FlagDataShort, "", UsageData)
	f.StringArrayVar(&tags, FlagTag, nil, UsageTag)
	f.StringVar(&createdBy, FlagCreatedBy, "", UsageCreatedBy)
	return cmd
}

func newStoreGetCommand(a *app) *cobra.Command {
	var (
		version int
		format  string
	)

	cmd := &cobra.Command{
		Use:   CmdNameGet + " <name>",
		Short: GetShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			storage, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			var tmpl *spackle.StoredTemplate
			if version > 0 {
				tmpl, err = storage.GetVersion(cmd.Context(), args[0], version)
			} else {
				tmpl, err = storage.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return failure(ErrMsgStorageFailed, err)
			}

			if format == OutputFormatJSON {
				return writeJSON(a, tmpl)
			}
			_, err = fmt.Fprint(a.streams.out, tmpl.Source)
			return err
		},
	}

	cmd.Flags().IntVar(&version, FlagVersion, 0, UsageVersion)
	cmd.Flags().StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func newStoreListCommand(a *app) *cobra.Command {
	var (
		query  spackle.TemplateQuery
		tags   []string
		format string
	)

	cmd := &cobra.Command{
		Use:   CmdNameList,
		Short: ListShort,
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			storage, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			query.Tags = splitTags(tags)
			results, err := storage.List(cmd.Context(), &query)
			if err != nil {
				return failure(ErrMsgStorageFailed, err)
			}

			if format == OutputFormatJSON {
				if results == nil {
					results = []*spackle.StoredTemplate{}
				}
				return writeJSON(a, results)
			}
			for _, tmpl := range results {
				fmt.Fprintf(a.streams.out, ListTextTemplate, tmpl.Name, tmpl.Version, strings.Join(tmpl.Tags, TagSeparator))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&query.Pattern, FlagPattern, "", UsagePattern)
	f.StringArrayVar(&tags, FlagTag, nil, UsageTag)
	f.StringVar(&query.CreatedBy, FlagCreatedBy, "", UsageCreatedBy)
	f.BoolVar(&query.IncludeAllVersions, FlagAll, false, UsageAll)
	f.IntVar(&query.Limit, FlagLimit, 0, UsageLimit)
	f.StringVarP(&format, FlagFormat, FlagFormatShort, FlagDefaultFormat, UsageFormat)
	return cmd
}

func newStoreDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameDelete + " <name>",
		Short: DeleteShort,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := a.openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = storage.Close() }()

			if err := storage.Delete(cmd.Context(), args[0]); err != nil {
				return failure(ErrMsgStorageFailed, err)
			}
			fmt.Fprintf(a.streams.out, DeleteTextTemplate, args[0])
			return nil
		},
	}
}

// splitTags accepts both repeated --tag flags and comma-separated lists.
func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, tag := range strings.Split(v, TagSeparator) {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}

func checkFormat(format string) error {
	if format != OutputFormatText && format != OutputFormatJSON {
		return usageError(fmt.Sprintf(ErrFmtWithDetail, ErrMsgInvalidFormat, format))
	}
	return nil
}

func writeJSON(a *app, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failure(ErrMsgJSONMarshalFailed, err)
	}
	_, err = fmt.Fprintln(a.streams.out, string(data))
	return err
}
