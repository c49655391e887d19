package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/dLedger/cmd/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/ValentinKolb/dLedger/rpc/server"
	"github.com/ValentinKolb/dLedger/rpc/transport"
	"github.com/ValentinKolb/dLedger/rpc/transport/tcp"
	"github.com/ValentinKolb/dLedger/rpc/transport/unix"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start an in-memory bookie",
		Long:    `Start an in-memory bookie with the specified configuration. The bookie keeps all ledgers in memory and is meant for development and testing. The configuration can be set via command line flags or environment variables. The format of the environment variables is DLEDGER_<flag> (e.g. DLEDGER_WORKERS_PER_CONN=8)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// add flags
	key := "endpoint"
	ServeCmd.Flags().String(key, "0.0.0.0:3181", cmdUtil.WrapString("The address on which the bookie will listen (e.g. localhost:3181, /tmp/bookie.sock, ...)"))

	key = "timeout"
	ServeCmd.Flags().Int64(key, 0, cmdUtil.WrapString("Idle timeout of a connection in seconds (0 disables the timeout)"))

	key = "workers-per-conn"
	ServeCmd.Flags().Int(key, 4, cmdUtil.WrapString("Number of requests of one connection that are handled in parallel"))

	key = "read-only"
	ServeCmd.Flags().Bool(key, false, cmdUtil.WrapString("Reject all adds with a read only error"))

	key = "max-frame-size"
	ServeCmd.Flags().Int(key, common.MaxFrameSize, cmdUtil.WrapString("The largest accepted frame (in bytes)"))

	key = "transport-write-buffer"
	ServeCmd.Flags().Int(key, 512, cmdUtil.WrapString("The size of the write buffer of a connection (in KB)"))

	key = "transport-read-buffer"
	ServeCmd.Flags().Int(key, 512, cmdUtil.WrapString("The size of the read buffer of a connection (in KB)"))

	key = "transport-tcp-nodelay"
	ServeCmd.Flags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "transport-tcp-keepalive"
	ServeCmd.Flags().Int(key, 30, cmdUtil.WrapString("The keepalive interval (in seconds, only for tcp)"))

	key = "transport-tcp-linger"
	ServeCmd.Flags().Int(key, 0, cmdUtil.WrapString("The linger time (in seconds, only for tcp)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.ReadOnly = viper.GetBool("read-only")
	serveCmdConfig.MaxFrameSize = viper.GetInt("max-frame-size")
	serveCmdConfig.SocketConf = common.SocketConf{
		WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
		ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
	}
	serveCmdConfig.TCPConf = common.TCPConf{
		TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
		TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
		TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
	}
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.WorkersPerConn <= 0 {
		return fmt.Errorf("workers-per-conn must be positive, got %d", serveCmdConfig.WorkersPerConn)
	}
	if serveCmdConfig.MaxFrameSize <= 0 {
		return fmt.Errorf("max-frame-size must be positive, got %d", serveCmdConfig.MaxFrameSize)
	}

	return nil
}

// run starts the bookie and blocks until it receives SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {

	// parse the serializer
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	// Parse the transport
	var t transport.IRPCServerTransport
	switch viper.GetString("transport") {
	case "tcp":
		t = tcp.NewTCPServerTransport(serveCmdConfig.WorkersPerConn)
	case "unix":
		t = unix.NewUnixServerTransport(serveCmdConfig.WorkersPerConn)
	default:
		return fmt.Errorf("invalid transport %s", viper.GetString("transport"))
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	served := make(chan error, 1)
	go func() { served <- serv.Serve() }()

	select {
	case err := <-served:
		return err
	case sig := <-signals:
		cmdUtil.Logger.Infof("Received %s, shutting down", sig)
		if err := serv.Close(); err != nil {
			return err
		}
		return <-served
	}
}
