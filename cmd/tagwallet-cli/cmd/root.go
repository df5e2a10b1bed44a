package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "tagwallet-cli",
	Short: "http client of the tag wallet api",
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("endpoint", "l", "http://localhost:8080", "api endpoint")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user id")
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

// apiError is the twirp error body the server writes.
type apiError struct {
	Code string            `json:"code"`
	Msg  string            `json:"msg"`
	Meta map[string]string `json:"meta,omitempty"`
}

func (e *apiError) Error() string {
	if len(e.Meta) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Code, e.Msg, e.Meta)
	}

	return e.Code + ": " + e.Msg
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(viper.GetString("endpoint") + "/api").
		SetHeader("Content-Type", "application/json").
		SetError(&apiError{})
}

func userPath(path string) (string, error) {
	user := viper.GetString("user")
	if user == "" {
		return "", fmt.Errorf("--user is required")
	}

	return "/users/" + user + path, nil
}

// call sends the request and prints the decoded response body.
func call(cmd *cobra.Command, req *resty.Request, method, path string) error {
	var out json.RawMessage
	resp, err := req.SetContext(cmd.Context()).SetResult(&out).Execute(method, path)
	if err != nil {
		return err
	}

	if resp.IsError() {
		if e, ok := resp.Error().(*apiError); ok && e.Code != "" {
			return e
		}

		return fmt.Errorf("%s %s: %s", method, path, resp.Status())
	}

	return printJson(cmd, out)
}

func printJson(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(b))
	return nil
}
