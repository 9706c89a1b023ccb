package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"
	"github.com/deemkeen/deckhand/db"
	"github.com/deemkeen/deckhand/deck"
	"github.com/deemkeen/deckhand/middleware"
	"github.com/deemkeen/deckhand/util"
	"github.com/deemkeen/deckhand/web"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	version := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println(versionLine())
		return
	}

	if err := run(); err != nil {
		log.Fatalln(err)
	}
}

func versionLine() string {
	return fmt.Sprintf("%s v%s", util.Name, util.GetVersion())
}

func run() error {
	conf, err := util.ReadConf()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	util.SetupLogging(conf.Conf.WithJournald)
	log.Printf("Starting %s", util.GetNameAndVersion())

	allow, err := middleware.NewKeyAllowlist(conf.Conf.AllowedKeys)
	if err != nil {
		return err
	}
	if allow.Len() == 0 {
		log.Printf("No allowedKeys configured, any SSH key may open the deck")
	}

	database, err := db.Open(conf.Conf.DbDriver, util.ResolveFilePath(conf.Conf.DbPath))
	if err != nil {
		return err
	}
	node := deck.NewNode(conf, database)
	defer node.Close()

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(conf.Conf.Host, strconv.Itoa(conf.Conf.HttpPort)),
		Handler:           web.NewRouter(node, node.PeerHandler()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}

	hostKey, err := hostKeyPath()
	if err != nil {
		return err
	}
	sshServer, err := wish.NewServer(
		wish.WithAddress(net.JoinHostPort(conf.Conf.Host, strconv.Itoa(conf.Conf.SshPort))),
		wish.WithHostKeyPath(hostKey),
		wish.WithPublicKeyAuth(allow.PublicKeyHandler()),
		wish.WithMiddleware(
			middleware.MainTui(node),
			middleware.AuthMiddleware(allow),
			logging.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create ssh server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() {
		log.Printf("Serving HTTP on %s", httpServer.Addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Printf("Serving SSH on %s", sshServer.Addr)
		if err := sshServer.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			errs <- fmt.Errorf("ssh server: %w", err)
		}
	}()

	id := node.Start()
	log.Printf("Peer id %s", id)
	util.NotifyReady()
	util.NotifyStatus("Ready as %s", id)

	select {
	case <-ctx.Done():
		log.Printf("Shutting down")
	case err = <-errs:
		log.Printf("Shutting down: %v", err)
	}
	util.NotifyStopping()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sshServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to stop ssh server: %v", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to stop http server: %v", err)
	}
	return err
}

func hostKeyPath() (string, error) {
	dir, err := util.GetConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(dir, "hostkey_ed25519"), nil
}
