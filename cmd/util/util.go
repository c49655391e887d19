package util

import (
	"crypto/sha1"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/ValentinKolb/dLedger/lib/stats"
	"github.com/ValentinKolb/dLedger/rpc/client"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/serializer"
	"github.com/ValentinKolb/dLedger/rpc/transport"
	"github.com/ValentinKolb/dLedger/rpc/transport/tcp"
	"github.com/ValentinKolb/dLedger/rpc/transport/unix"
	"github.com/VictoriaMetrics/metrics"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRPCClientFlags adds the flags of a bookie client to a command
func SetupRPCClientFlags(cmd *cobra.Command) {
	defaults := common.DefaultClientConfig()

	key := "endpoint"
	cmd.PersistentFlags().String(key, "127.0.0.1:3181", WrapString("The address of the bookie (host:port, or a socket path for the unix transport)"))

	key = "add-timeout"
	cmd.PersistentFlags().Duration(key, defaults.AddEntryTimeout, WrapString("Time after which an unanswered add fails (0 disables the timeout)"))

	key = "read-timeout"
	cmd.PersistentFlags().Duration(key, defaults.ReadEntryTimeout, WrapString("Time after which an unanswered read fails (0 disables the timeout)"))

	key = "timeout-task-interval"
	cmd.PersistentFlags().Duration(key, defaults.TimeoutTaskInterval, WrapString("How often outstanding requests are checked for timeouts (0 disables the check)"))

	key = "workers"
	cmd.PersistentFlags().Int(key, runtime.NumCPU(), WrapString("Number of ordered callback workers"))

	key = "connect-timeout"
	cmd.PersistentFlags().Duration(key, defaults.Transport.ConnectTimeout, WrapString("The timeout for establishing the connection"))

	key = "max-frame-size"
	cmd.PersistentFlags().Int(key, common.MaxFrameSize, WrapString("The largest accepted frame (in bytes)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the write buffer for the transport (in KB)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 512, WrapString("The size of the read buffer for the transport (in KB)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapString("Whether to enable TCP_NODELAY for the transport (only for tcp)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 30, WrapString("The keepalive interval for the transport (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time for the transport (in seconds, only for tcp)"))

	key = "password"
	cmd.PersistentFlags().String(key, "", WrapString("Password of the ledger, its SHA-1 digest is the master key"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dledger")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// InitLogging installs the dLedger logger with the configured level
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetClientConfig reads client configuration from viper
func GetClientConfig() *common.ClientConfig {
	conf := &common.ClientConfig{
		AddEntryTimeout:     viper.GetDuration("add-timeout"),
		ReadEntryTimeout:    viper.GetDuration("read-timeout"),
		TimeoutTaskInterval: viper.GetDuration("timeout-task-interval"),
		NumWorkers:          viper.GetInt("workers"),
		Transport: common.ClientTransportConfig{
			Endpoint:       viper.GetString("endpoint"),
			ConnectTimeout: viper.GetDuration("connect-timeout"),
			MaxFrameSize:   viper.GetInt("max-frame-size"),
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	return conf
}

// GetMasterKey derives the master key of a ledger from the configured password
func GetMasterKey() []byte {
	digest := sha1.Sum([]byte(viper.GetString("password")))
	return digest[:]
}

// GetSerializer creates a serializer based on configuration
func GetSerializer() (serializer.IRPCSerializer, error) {
	switch viper.GetString("serializer") {
	case "json":
		return serializer.NewJSONSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", viper.GetString("serializer"))
	}
}

// GetTransport creates the client transport based on configuration
func GetTransport(s serializer.IRPCSerializer, config common.ClientTransportConfig) (transport.IRPCClientTransport, error) {
	switch viper.GetString("transport") {
	case "tcp":
		return tcp.NewTCPClientTransport(s, config), nil
	case "unix":
		return unix.NewUnixClientTransport(s, config), nil
	default:
		return nil, fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}
}

// MetricsWriter writes the collected metrics of a stats provider
type MetricsWriter func(w io.Writer) error

// GetStatsLogger creates the stats provider based on configuration.
// The returned writer dumps the collected metrics in the format of the provider.
func GetStatsLogger() (stats.StatsLogger, MetricsWriter, error) {
	switch viper.GetString("stats") {
	case "victoria":
		set := metrics.NewSet()
		return stats.NewVictoriaStatsLogger(set), func(w io.Writer) error {
			set.WritePrometheus(w)
			return nil
		}, nil
	case "gometrics":
		registry := gometrics.NewRegistry()
		return stats.NewGoMetricsStatsLogger(registry), func(w io.Writer) error {
			gometrics.WriteOnce(registry, w)
			return nil
		}, nil
	case "prometheus":
		registry := prometheus.NewRegistry()
		return stats.NewPrometheusStatsLogger(registry), func(w io.Writer) error {
			families, err := registry.Gather()
			if err != nil {
				return err
			}
			for _, family := range families {
				if _, err := expfmt.MetricFamilyToText(w, family); err != nil {
					return err
				}
			}
			return nil
		}, nil
	case "none", "":
		return stats.NullStatsLogger, func(io.Writer) error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("invalid stats provider %s", viper.GetString("stats"))
	}
}

// NewBookieClient creates a client for the configured bookie together with
// the metrics writer of its stats provider
func NewBookieClient() (*client.BookieClient, MetricsWriter, error) {
	config := GetClientConfig()

	addr, err := common.ParseBookieAddress(config.Transport.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	// Get serializer, transport and stats
	s, err := GetSerializer()
	if err != nil {
		return nil, nil, err
	}
	t, err := GetTransport(s, config.Transport)
	if err != nil {
		return nil, nil, err
	}
	st, dump, err := GetStatsLogger()
	if err != nil {
		return nil, nil, err
	}

	Logger.Debugf("Client configuration:\n%s", config.String())
	return client.NewBookieClient(*config, addr, t, nil, st), dump, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
