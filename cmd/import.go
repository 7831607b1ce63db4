package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/scopelens/intel-cli/internal/model"
)

var importFilePath string

// seedFile is the YAML layout accepted by the import command.
type seedFile struct {
	Companies []seedCompany `yaml:"companies"`
}

type seedCompany struct {
	Name         string        `yaml:"name"`
	Industry     string        `yaml:"industry"`
	Headquarters string        `yaml:"headquarters"`
	Website      string        `yaml:"website"`
	Profiles     []seedProfile `yaml:"profiles"`
}

type seedProfile struct {
	Platform string `yaml:"platform"`
	Handle   string `yaml:"handle"`
	URL      string `yaml:"url"`
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tracked companies and profiles from a YAML file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		data, err := os.ReadFile(importFilePath)
		if err != nil {
			return eris.Wrap(err, "read seed file")
		}
		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return eris.Wrap(err, "parse seed file")
		}

		companies, profiles := 0, 0
		for _, sc := range seed.Companies {
			if sc.Name == "" {
				return eris.New("company name is required")
			}
			company, err := st.CreateCompany(ctx, model.Company{
				Name:         sc.Name,
				Industry:     sc.Industry,
				Headquarters: sc.Headquarters,
				Website:      sc.Website,
			})
			if err != nil {
				return eris.Wrapf(err, "create company %s", sc.Name)
			}
			companies++

			for _, sp := range sc.Profiles {
				if sp.Platform == "" || sp.Handle == "" {
					return eris.Errorf("profile for %s needs platform and handle", sc.Name)
				}
				if _, err := st.CreateProfile(ctx, model.Profile{
					CompanyID: company.ID,
					Platform:  sp.Platform,
					Handle:    sp.Handle,
					URL:       sp.URL,
				}); err != nil {
					return eris.Wrapf(err, "create profile %s/%s", sc.Name, sp.Handle)
				}
				profiles++
			}
		}

		zap.L().Info("import complete",
			zap.Int("companies", companies),
			zap.Int("profiles", profiles),
			zap.String("file", importFilePath),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to YAML seed file (required)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
