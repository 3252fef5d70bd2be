package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/jlevy/markform/flow"
	"github.com/jlevy/markform/form"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	err = startApp(context.Background(), config)
	if err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, config *Config) error {
	slog.SetLogLoggerLevel(slog.LevelInfo)
	ctx = flow.WithSessionKey(ctx, "review")

	schemaDef, err := form.LoadSchemaFile(config.Schema)
	if err != nil {
		return err
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}
	reviewFlow, err := flow.NewToolBased(cm, flow.WithManager(&ReviewManager{}))
	if err != nil {
		return err
	}
	store := flow.NewMemoryStore(schemaDef)
	agent := flow.NewAgent(
		"ReviewCollector",
		"An agent that collects a structured movie review via conversation",
		reviewFlow,
		store,
	)
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent: agent,
	})

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Tell me about a movie you watched (type cancel to quit):")
	for {
		fmt.Print("you: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("input closed, exiting.")
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		iter := runner.Run(ctx, []*schema.Message{schema.UserMessage(input)})
		for {
			event, ok := iter.Next()
			if !ok {
				break
			}
			if event.Err != nil {
				return event.Err
			}
			msg, mErr := event.Output.MessageOutput.GetMessage()
			if mErr != nil {
				return mErr
			}
			fmt.Printf("\nassistant: %v\n======\n", msg.Content)
		}
		session, sErr := store.Read(ctx)
		if sErr != nil {
			return sErr
		}
		if session.Phase == flow.PhaseSubmitted || session.Phase == flow.PhaseCancelled {
			if err := store.Remove(ctx); err != nil {
				return err
			}
			fmt.Println("session finished, starting fresh.")
		}
	}
	return nil
}
