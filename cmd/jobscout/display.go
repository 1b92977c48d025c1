package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/avlloyd/jobscout/internal/alerts"
	"github.com/avlloyd/jobscout/internal/scout"
	"github.com/avlloyd/jobscout/internal/service"
)

func printSearchResult(result service.SearchResult) {
	printJobs(result.Jobs)
	if result.Inserted > 0 || result.Known > 0 {
		pterm.Info.Printfln("saved %d new postings (%d already known)", result.Inserted, result.Known)
	}
	if result.ExportPath != "" {
		pterm.Info.Printfln("exported to %s", result.ExportPath)
	}
}

func printJobs(jobs []scout.JobPosting) {
	if len(jobs) == 0 {
		pterm.Warning.Println("no postings found")
		return
	}

	rows := pterm.TableData{{"Title", "Company", "Location", "Remote", "Posted", "URL"}}
	for _, job := range jobs {
		rows = append(rows, []string{
			job.Title,
			job.Company,
			job.Location,
			yesNo(job.Remote),
			postedAge(job),
			job.URL,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		// Fall back to plain output when the terminal rejects the table.
		for _, job := range jobs {
			fmt.Printf("%s | %s | %s | %s\n", job.Title, job.Company, job.Location, job.URL)
		}
	}
	pterm.Info.Printfln("total postings: %d", len(jobs))
}

func printAlerts(all []alerts.Alert) {
	if len(all) == 0 {
		pterm.Warning.Println("no alerts configured")
		return
	}

	rows := pterm.TableData{{"Name", "Enabled", "Keywords", "Location", "Age", "Modes"}}
	for _, a := range all {
		modes := make([]string, 0, len(a.Criteria.WorkModes))
		for _, m := range a.Criteria.WorkModes {
			modes = append(modes, m.Name())
		}
		age := ""
		if a.Criteria.TimeFilter != scout.TimeAny {
			age = a.Criteria.TimeFilter.Name()
		}
		rows = append(rows, []string{
			a.Name,
			yesNo(a.Enabled),
			a.Criteria.Keywords,
			a.Criteria.Location,
			age,
			strings.Join(modes, ","),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		for _, a := range all {
			fmt.Printf("%s (enabled=%s): %s\n", a.Name, yesNo(a.Enabled), a.Criteria.Keywords)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func postedAge(job scout.JobPosting) string {
	if job.PostedAt == nil {
		return "unknown"
	}
	return humanize.Time(*job.PostedAt)
}
