package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/cloo-solutions/sevakai/internal/knowledge"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/cloo-solutions/sevakai/internal/storage"
	"github.com/spf13/cobra"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the chatbot knowledge document",
		Long:  "Inspect how the knowledge document is indexed and publish new versions to object storage",
	}

	cmd.AddCommand(KnowledgeInspectCmd())
	cmd.AddCommand(KnowledgePushCmd())

	return cmd
}

func KnowledgeInspectCmd() *cobra.Command {
	var (
		query string
		file  string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show indexed sections and the context chosen for a query",
		Long: `Show the sections of the knowledge document in index order.

With --query, also show the scored selection and the exact context block the
chatbot would receive for that question.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runKnowledgeInspect(outputFormat, file, query)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Visitor question to score against the index")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Markdown file to index instead of the configured document")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runKnowledgeInspect(outputFormat, file, query string) error {
	ctx := context.Background()

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	src := service.KnowledgeSource{File: rt.cfg.KnowledgeFile, ObjectKey: rt.cfg.KnowledgeObjectKey}
	if file != "" {
		src.File = file
	}
	if src.File == "" && rt.cfg.HasS3() {
		s3Client, err := rt.openS3(ctx)
		if err != nil {
			return err
		}
		src.Objects = s3Client
	}

	index, err := service.LoadKnowledgeIndex(ctx, src, rt.logger)
	if err != nil {
		return err
	}

	var selected []*inspectScore
	bundle := ""
	if strings.TrimSpace(query) != "" {
		scored := knowledge.Select(query, index)
		for _, s := range scored {
			selected = append(selected, &inspectScore{Title: s.Title, Score: s.Score})
		}
		bundle = knowledge.Render(scored)
	}

	if outputFormat == "json" {
		output := map[string]interface{}{
			"sections": index.Titles(),
			"count":    index.Len(),
		}
		if query != "" {
			output["query"] = query
			output["selected"] = selected
			output["context"] = bundle
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
		return nil
	}

	fmt.Printf("Sections (%d):\n", index.Len())
	for i, s := range index.Sections() {
		fmt.Printf("  %2d. %s (%d chars)\n", i+1, s.Title, len(s.Content))
	}

	if query == "" {
		return nil
	}

	fmt.Printf("\nSelected for %q:\n", query)
	if len(selected) == 0 {
		fmt.Println("  (nothing)")
		return nil
	}
	for _, s := range selected {
		fmt.Printf("  %-30s %g\n", s.Title, s.Score)
	}
	fmt.Println("\n--- Context ---")
	fmt.Println(bundle)

	return nil
}

type inspectScore struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

func KnowledgePushCmd() *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Upload a knowledge document to object storage",
		Long:  "Upload a markdown knowledge document to the S3 bucket. Running servers pick it up on restart.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKnowledgePush(args[0], key)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Object key (default: SEVAK_KNOWLEDGE_OBJECT_KEY)")

	return cmd
}

func runKnowledgePush(path, key string) error {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	index := knowledge.BuildIndex(string(data))
	if index.Len() == 0 {
		return fmt.Errorf("%s has no \"## \" sections; refusing to publish an empty knowledge base", path)
	}
	if _, ok := index.Overview(); !ok {
		fmt.Fprintln(os.Stderr, "Warning: no \"Company Overview\" section; replies will lack a default context")
	}

	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if key == "" {
		key = rt.cfg.KnowledgeObjectKey
	}

	s3Client, err := rt.openS3(ctx)
	if err != nil {
		return err
	}
	if err := s3Client.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}

	if err := s3Client.PutObject(ctx, key, data, storage.MarkdownContentType); err != nil {
		return err
	}

	meta, err := s3Client.HeadObject(ctx, key)
	if err != nil {
		return fmt.Errorf("upload did not verify: %w", err)
	}

	fmt.Printf("Uploaded %s to s3://%s/%s (%d bytes, %d sections)\n", path, s3Client.Bucket(), key, meta.ContentLength, index.Len())
	return nil
}
