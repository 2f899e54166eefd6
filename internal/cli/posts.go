package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/damoang/angple-realtime/internal/optimistic"
	"github.com/spf13/cobra"
)

var deleteComment string

func init() {
	commentsCmd.Flags().StringVar(&deleteComment, "delete", "", "delete one of your comments by id")
	rootCmd.AddCommand(likeCmd, commentsCmd, commentCmd)
}

var likeCmd = &cobra.Command{
	Use:   "like [postId]",
	Short: "Toggle your like on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		postID := args[0]
		if err := s.Likes().Load(cmd.Context(), postID); err != nil {
			return err
		}
		state, err := s.Likes().Toggle(cmd.Context(), postID)
		printLikes(cmd.OutOrStdout(), postID, state)
		return err
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments [postId]",
	Short: "List the comments of a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		postID := args[0]
		if err := s.Comments().Load(cmd.Context(), postID); err != nil {
			return err
		}
		if deleteComment != "" {
			if err := s.Comments().Delete(cmd.Context(), postID, deleteComment); err != nil {
				return err
			}
		}

		state := s.Comments().State(postID)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d comments on %s\n", state.Count, postID)
		for _, c := range state.Comments {
			fmt.Fprintf(out, "  %s  %s: %s\n", c.ID, c.UserID, c.Text)
		}
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment [postId] [text...]",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		postID := args[0]
		if err := s.Comments().Load(cmd.Context(), postID); err != nil {
			return err
		}
		c, err := s.Comments().Create(cmd.Context(), postID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "commented %s (%d total)\n", c.ID, s.Comments().State(postID).Count)
		return nil
	},
}

func printLikes(out io.Writer, postID string, state optimistic.LikeState) {
	liked := "not liked"
	if state.Liked {
		liked = "liked"
	}
	fmt.Fprintf(out, "%s: %d likes, %s (%s)\n", postID, len(state.Likes), liked, state.Tag)
}
