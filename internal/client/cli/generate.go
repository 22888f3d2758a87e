package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/tanvir-rifat007/maker-cli/internal/client/generation"
	"github.com/tanvir-rifat007/maker-cli/internal/client/models"
	"github.com/tanvir-rifat007/maker-cli/internal/netx"
	"github.com/tanvir-rifat007/maker-cli/internal/validator"
)

// getMultiline and getTextWithDefault are test seams for the interactive
// prompts, like getSimpleText in auth.go; netxResolve and downloadArtifact
// keep Download testable without a server.
var getMultiline = GetMultiline
var getTextWithDefault = GetTextWithDefault
var netxResolve = netx.ResolveURL
var downloadArtifact = netx.DownloadArtifact

// Generate prompts for the job parameters, starts a generation session and
// streams its progress to the terminal until the job ends. The prompts
// default to the current form, so a selected history record pre-fills them.
func (a *App) Generate(ctx context.Context) error {
	req, err := a.promptRequest()
	if err != nil {
		return err
	}

	user := a.store.User()
	if user == nil {
		fmt.Println("Please sign in first (type 'login').")
		return nil
	}

	events, err := a.gen.Start(ctx, req, user.ID)
	if err != nil {
		var verr *validator.ValidationError
		switch {
		case errors.As(err, &verr):
			printFieldErrors(verr.Fields)
		case errors.Is(err, generation.ErrTransport):
			fmt.Printf("Could not reach the generation service: %s\n", err.Error())
		default:
			fmt.Printf("Could not start generation: %s\n", err.Error())
		}
		return err
	}

	// The form and the optimistic history entry only update once the job
	// actually started.
	a.form = req.Normalized()
	a.hist.RecordOptimistic(ctx, req)

	for ev := range events {
		printEvent(ev)
	}

	if err := a.gen.Err(); err != nil {
		fmt.Printf("Generation session failed: %s\n", err.Error())
		return err
	}

	if url := a.gen.ArtifactURL(); url != "" {
		fmt.Printf("Done! Type 'download' to fetch the archive (%s).\n", url)
	}

	// Pick up the server's record for the finished job.
	a.hist.Fetch(ctx, user.ID)
	return nil
}

// promptRequest collects the generation parameters, starting from the
// current form values.
func (a *App) promptRequest() (models.GenerationRequest, error) {
	var zero models.GenerationRequest

	prompt, err := getMultiline(a.reader, "Describe the project to generate", os.Stdout)
	if err != nil {
		return zero, err
	}

	language, err := getTextWithDefault(a.reader, "Language", a.form.Language, os.Stdout)
	if err != nil {
		return zero, err
	}
	template, err := getTextWithDefault(a.reader, "Template", a.form.Template, os.Stdout)
	if err != nil {
		return zero, err
	}
	basePackage, err := getTextWithDefault(a.reader, "Base package", a.form.BasePackage, os.Stdout)
	if err != nil {
		return zero, err
	}
	workersText, err := getTextWithDefault(a.reader, "Workers", strconv.Itoa(a.form.WorkerCount), os.Stdout)
	if err != nil {
		return zero, err
	}
	workers, err := strconv.Atoi(workersText)
	if err != nil {
		fmt.Println("Workers must be a number.")
		return zero, err
	}
	model, err := getTextWithDefault(a.reader, "Model", a.form.Model, os.Stdout)
	if err != nil {
		return zero, err
	}
	projectName, err := getTextWithDefault(a.reader, "Project name", a.form.Normalized().ProjectName, os.Stdout)
	if err != nil {
		return zero, err
	}

	return models.GenerationRequest{
		Language:    language,
		Template:    template,
		BasePackage: basePackage,
		WorkerCount: workers,
		Model:       model,
		Prompt:      prompt,
		ProjectName: projectName,
	}, nil
}

func printEvent(ev models.ProgressEvent) {
	switch ev.Type {
	case models.EventStart:
		fmt.Println(ev.Message)
	case models.EventFile:
		fmt.Printf("Writing file: %s\n", ev.File)
	case models.EventError:
		fmt.Printf("Error: %s\n", ev.Error)
	case models.EventComplete:
		fmt.Println(ev.Message)
	}
}

// Download fetches the artifact produced by the last completed generation
// into the current directory.
func (a *App) Download(ctx context.Context) error {
	ref := a.gen.ArtifactURL()
	if ref == "" {
		fmt.Println("Nothing to download yet. Run 'generate' first.")
		return nil
	}

	url, err := netxResolve(a.config.ServerBaseURL, ref)
	if err != nil {
		fmt.Printf("Download failed: %s\n", err.Error())
		return err
	}

	path, err := downloadArtifact(a.httpc, url, ".")
	if err != nil {
		fmt.Printf("Download failed: %s\n", err.Error())
		return err
	}

	fmt.Printf("Saved %s\n", path)
	return nil
}
