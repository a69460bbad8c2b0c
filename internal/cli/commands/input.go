package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/config"
	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/job"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

// inputOptions selects the target table and the dataset.
type inputOptions struct {
	Job   string
	DDL   string
	Table string
	Data  string
}

func (o *inputOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Job, "job", "j", "", "Job file (YAML or JSON)")
	cmd.Flags().StringVar(&o.DDL, "ddl", "", "DDL file defining the target table, instead of a job")
	cmd.Flags().StringVar(&o.Table, "table", "", "Table to use when the DDL defines several")
	cmd.Flags().StringVarP(&o.Data, "data", "d", "", "Dataset file (.csv or .json)")
	_ = cmd.MarkFlagRequired("data")
	cmd.MarkFlagsMutuallyExclusive("job", "ddl")
	cmd.MarkFlagsOneRequired("job", "ddl")
}

// input is a resolved job, its table and its dataset.
type input struct {
	job     *job.Job
	schema  *core.TableSchema
	dataset core.Dataset
}

func (o *inputOptions) load() (*input, error) {
	var j *job.Job
	if o.Job != "" {
		var err error
		if j, err = job.Load(o.Job); err != nil {
			return nil, err
		}
	} else {
		j = &job.Job{DDLFile: o.DDL}
	}
	if o.Table != "" {
		j.TableName = o.Table
	}

	schema, err := j.Schema()
	if err != nil {
		return nil, err
	}
	data, err := job.LoadDataset(o.Data)
	if err != nil {
		return nil, err
	}
	return &input{job: j, schema: schema, dataset: data}, nil
}

// pipelineInput uses the job's mapping, or auto-maps when it has none.
// Transforms named in the job win over suggested ones.
func (in *input) pipelineInput(ctx context.Context) (core.PipelineInput, error) {
	transforms, err := in.job.Transforms()
	if err != nil {
		return core.PipelineInput{}, err
	}
	mapping := in.job.ColumnMapping()
	if mapping == nil {
		res := core.AutoMap(in.dataset.Headers, in.schema, &in.dataset)
		mapping = res.Mapping
		for field, kind := range res.Transforms {
			if _, set := transforms[field]; !set {
				transforms[field] = kind
			}
		}
		logging.FromContext(ctx).Info("auto-mapped columns",
			"table", in.schema.Name,
			"mapped", res.Stats.Mapped,
			"skipped", res.Stats.Skipped,
		)
	}
	return core.PipelineInput{
		Schema:     in.schema,
		Dataset:    in.dataset,
		Mapping:    mapping,
		Transforms: transforms,
	}, nil
}

func (in *input) run(ctx context.Context, cfg *config.Config) (*core.PipelineResult, error) {
	pin, err := in.pipelineInput(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Import.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Import.Timeout)
		defer cancel()
	}
	return core.RunPipeline(ctx, pin, core.PipelineOptions{
		Workers:        cfg.Import.Workers,
		MaxRows:        cfg.Import.MaxRows,
		Strict:         cfg.Import.Strict || in.job.Strict,
		KeepUnsafeRows: cfg.Import.KeepUnsafeRows,
	})
}

// reportRejected lists the problems of a rejected run on w and returns
// the run's error.
func reportRejected(w io.Writer, res *core.PipelineResult) error {
	err := res.Err()
	if err == nil {
		return nil
	}
	for _, line := range res.Problems() {
		fmt.Fprintln(w, line)
	}
	return err
}
