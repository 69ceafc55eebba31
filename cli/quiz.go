// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/grading"
	"codeberg.org/lingofe/lingofe/i18n"
)

const (
	msgCorrect   = "Correct!"
	msgIncorrect = "Not quite. Reset to try again."
)

func newQuizCmd(s *state) *cobra.Command {
	var attempts int

	cmd := &cobra.Command{
		Use:   "quiz <question-id>",
		Short: "Answer a fill-in-the-blank question.",
		Long: `Show a question and read one answer per blank from standard input.

Answers are graded once every blank is filled. A wrong attempt clears the
answers and starts over, up to --attempts times. Each graded attempt is
reported to the server when telemetry is enabled.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			q, err := core.GetItem[core.Question](ctx, s.app.API, core.QuestionSchema, args[0])
			if err != nil {
				return fetchFailed(ctx, err)
			}

			slot := grading.NewSlot(s.app.Telemetry)
			defer slot.Hide()

			session, err := slot.Show(q.Grading())
			if err != nil {
				return err
			}

			return runQuiz(ctx, session, q.Explanation, attempts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&attempts, "attempts", 3, "maximum graded attempts, 0 for no limit")

	return cmd
}

// runQuiz prompts for each blank in turn until an attempt is correct, the
// attempts run out or the input ends.
func runQuiz(
	ctx context.Context,
	session *grading.Session,
	explanation string,
	attempts int,
	in io.Reader,
	out io.Writer,
) error {
	fmt.Fprintln(out, plainText(session.Question().TemplateHTML, func(i int) string {
		return "[" + strconv.Itoa(i+1) + "]"
	}))
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)

	for attempt := 1; attempts <= 0 || attempt <= attempts; attempt++ {
		res, err := answerAll(ctx, session, scanner, out)
		if err != nil || res == nil {
			return err
		}

		writeResult(ctx, out, session.Answers(), *res)

		if res.AllCorrect {
			if explanation != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, plainText(explanation, nil))
			}

			return nil
		}

		session.Reset()
		fmt.Fprintln(out)
	}

	return nil
}

// answerAll fills every blank from scanner. Blank lines repeat the prompt.
// A nil result with a nil error means the input ended.
func answerAll(ctx context.Context, session *grading.Session, scanner *bufio.Scanner, out io.Writer) (*grading.Result, error) {
	for i := 0; i < session.Blanks(); {
		fmt.Fprintf(out, "%s: ", i18n.TrC(ctx, "quiz", "Blank {{.Index}}", "Index", i+1))

		if !scanner.Scan() {
			fmt.Fprintln(out)

			return nil, scanner.Err()
		}

		answer := scanner.Text()
		if strings.TrimSpace(answer) == "" {
			continue
		}

		res, err := session.SetAnswer(ctx, i, answer)
		if err != nil {
			return nil, err
		}

		if res != nil {
			return res, nil
		}

		i++
	}

	return nil, nil
}

func writeResult(ctx context.Context, out io.Writer, answers []string, res grading.Result) {
	for i, ok := range res.PerBlankCorrect {
		mark := "✗"
		if ok {
			mark = "✓"
		}

		fmt.Fprintf(out, "  %s %s: %s\n", mark, i18n.TrC(ctx, "quiz", "Blank {{.Index}}", "Index", i+1), answers[i])
	}

	if res.AllCorrect {
		fmt.Fprintln(out, i18n.Tr(ctx, msgCorrect))
	} else {
		fmt.Fprintln(out, i18n.Tr(ctx, msgIncorrect))
	}
}
