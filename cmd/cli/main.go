package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "mediavault",
		Short: "MediaVault CLI - Media download queue and catalog",
		Long:  `A command-line interface for queueing media downloads and searching the local catalog.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(suggestCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a media download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		audio, _ := cmd.Flags().GetBool("audio")
		quality, _ := cmd.Flags().GetString("quality")
		playlist, _ := cmd.Flags().GetBool("playlist")
		container, _ := cmd.Flags().GetString("container")
		skipExisting, _ := cmd.Flags().GetBool("skip-existing")

		payload := map[string]interface{}{
			"url":           args[0],
			"want_playlist": playlist,
			"skip_existing": skipExisting,
		}
		if audio {
			payload["media_kind"] = "audio"
		}
		if quality != "" {
			payload["quality_tier"] = quality
		}
		if container != "" {
			payload["container_ext"] = container
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Download queued!\n")
		fmt.Printf("ID: %s\n", result["id"])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		all, _ := cmd.Flags().GetBool("all")

		url := serverURL + "/api/v1/downloads"
		if all {
			url += "?all=true"
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var jobs []map[string]interface{}
		json.Unmarshal(body, &jobs)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tSTATUS\tPROGRESS\tCREATED")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\n",
				truncate(stringField(j, "id"), 8),
				truncate(stringField(j, "url"), 40),
				j["status"],
				floatField(j, "progress"),
				j["created_at"])
		}
		w.Flush()
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get job details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/downloads/" + args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var job map[string]interface{}
		json.Unmarshal(body, &job)

		fmt.Printf("Job Details:\n")
		fmt.Printf("  ID:       %s\n", job["id"])
		fmt.Printf("  URL:      %s\n", job["url"])
		fmt.Printf("  Status:   %s\n", job["status"])
		fmt.Printf("  Progress: %.0f%%\n", floatField(job, "progress"))
		fmt.Printf("  Created:  %s\n", job["created_at"])
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a job from the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/downloads/"+args[0], nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Job removed")
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all pending jobs",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		req, _ := http.NewRequest(http.MethodDelete, serverURL+"/api/v1/downloads", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		fmt.Println("Queue cleared")
	},
}

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "List the media catalog",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/media")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var media []map[string]interface{}
		json.Unmarshal(body, &media)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tFILE\tCREATED")
		for _, m := range media {
			fmt.Fprintf(w, "%v\t%s\t%s\t%s\n",
				m["id"],
				truncate(stringField(m, "title"), 40),
				truncate(stringField(m, "filepath"), 50),
				m["created_at"])
		}
		w.Flush()
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the media catalog",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		title, _ := cmd.Flags().GetString("title")
		authors, _ := cmd.Flags().GetStringSlice("author")
		platforms, _ := cmd.Flags().GetStringSlice("platform")
		tags, _ := cmd.Flags().GetStringSlice("tag")
		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		payload := map[string]interface{}{
			"page":  page,
			"limit": limit,
		}
		if title != "" {
			payload["title"] = title
		}
		if len(authors) > 0 {
			payload["author"] = authors
		}
		if len(platforms) > 0 {
			payload["platform"] = platforms
		}
		if len(tags) > 0 {
			payload["tags"] = tags
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/media/search", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Data        []map[string]interface{} `json:"data"`
			Total       int64                    `json:"total"`
			HasNextPage bool                     `json:"has_next_page"`
		}
		json.Unmarshal(body, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tPLATFORM\tCREATED")
		for _, m := range result.Data {
			fmt.Fprintf(w, "%v\t%s\t%s\t%s\t%s\n",
				m["id"],
				truncate(stringField(m, "title"), 40),
				stringField(m, "author"),
				stringField(m, "platform"),
				m["created_at"])
		}
		w.Flush()

		fmt.Printf("\n%d result(s)", result.Total)
		if result.HasNextPage {
			fmt.Print(", more pages available")
		}
		fmt.Println()
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [authors|platforms|tags] [keyword]",
	Short: "Suggest catalog filter values",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		kind := args[0]
		switch kind {
		case "authors", "platforms", "tags":
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown suggestion kind %q\n", kind)
			os.Exit(1)
		}

		resp, err := http.Get(serverURL + "/api/v1/media/suggest/" + kind + "?q=" + args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var result struct {
			Suggestions []string `json:"suggestions"`
		}
		json.Unmarshal(body, &result)

		if len(result.Suggestions) == 0 {
			fmt.Println("No suggestions")
			return
		}
		fmt.Println(strings.Join(result.Suggestions, "\n"))
	},
}

func init() {
	addCmd.Flags().BoolP("audio", "a", false, "Extract audio only")
	addCmd.Flags().StringP("quality", "q", "", "Quality tier (best, 8k, 4k, 2k, 1080, 720, 480)")
	addCmd.Flags().BoolP("playlist", "p", false, "Download the whole playlist")
	addCmd.Flags().StringP("container", "c", "", "Container extension (mp4, mkv, mp3, ...)")
	addCmd.Flags().Bool("skip-existing", false, "Skip files already on disk")
	listCmd.Flags().Bool("all", false, "Include completed jobs")
	searchCmd.Flags().String("title", "", "Title substring")
	searchCmd.Flags().StringSlice("author", nil, "Author name (repeatable)")
	searchCmd.Flags().StringSlice("platform", nil, "Platform name (repeatable)")
	searchCmd.Flags().StringSlice("tag", nil, "Required tag (repeatable)")
	searchCmd.Flags().Int("page", 1, "Page number")
	searchCmd.Flags().Int("limit", 50, "Page size")
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func floatField(m map[string]interface{}, key string) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return 0
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
