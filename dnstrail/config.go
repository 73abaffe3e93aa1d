package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jedisct1/dlog"
	netproxy "golang.org/x/net/proxy"
)

const (
	DefaultNetprobeAddress = "198.41.0.4:53"
)

type Config struct {
	LogLevel         int            `toml:"log_level"`
	LogFile          *string        `toml:"log_file"`
	UseSyslog        bool           `toml:"use_syslog"`
	ListenAddresses  []string       `toml:"listen_addresses"`
	MaxClients       uint32         `toml:"max_clients"`
	RootServers      []string       `toml:"root_servers"`
	RootsFile        string         `toml:"roots_file"`
	RootsMinisignKey string         `toml:"roots_minisign_key"`
	ForceTCP         bool           `toml:"force_tcp"`
	Proxy            string         `toml:"proxy"`
	Timeout          int            `toml:"timeout"`
	MaxIndirections  int            `toml:"max_indirections"`
	MaxQueries       int            `toml:"max_queries"`
	BlockUndelegated bool           `toml:"block_undelegated"`
	UndelegatedZones []string       `toml:"undelegated_zones"`
	BlockBogonGlue   bool           `toml:"block_bogon_glue"`
	BogonRulesFile   string         `toml:"bogon_rules_file"`
	QueryLog         QueryLogConfig `toml:"query_log"`
	LogMaxSize       int            `toml:"log_files_max_size"`
	LogMaxAge        int            `toml:"log_files_max_age"`
	LogMaxBackups    int            `toml:"log_files_max_backups"`
	NetprobeAddress  string         `toml:"netprobe_address"`
	NetprobeTimeout  int            `toml:"netprobe_timeout"`
}

func newConfig() Config {
	return Config{
		LogLevel:         int(dlog.LogLevel()),
		MaxClients:       250,
		Timeout:          3000,
		MaxIndirections:  DefaultMaxIndirections,
		MaxQueries:       DefaultMaxQueries,
		BlockUndelegated: true,
		BlockBogonGlue:   true,
		LogMaxSize:       10,
		LogMaxAge:        7,
		LogMaxBackups:    1,
		NetprobeTimeout:  60,
	}
}

type QueryLogConfig struct {
	File          string
	Format        string
	IgnoredQtypes []string `toml:"ignored_qtypes"`
}

func findConfigFile(configFile *string) (string, error) {
	if _, err := os.Stat(*configFile); os.IsNotExist(err) {
		cdLocal()
		if _, err := os.Stat(*configFile); err != nil {
			return "", err
		}
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(*configFile) {
		return *configFile, nil
	}
	return path.Join(pwd, *configFile), nil
}

func ConfigLoad(proxy *Proxy, svcFlag *string) error {
	version := flag.Bool("version", false, "print current version and exit")
	check := flag.Bool("check", false, "check the configuration file and exit")
	configFile := flag.String("config", DefaultConfigFileName, "Path to the configuration file")
	resolveName := flag.String("resolve", "", "resolve a name (optionally name,type), print the delegation trail and exit")
	bench := flag.Bool("bench", false, "measure root server latencies and exit")
	benchRounds := flag.Int("bench-rounds", 3, "number of probe rounds per root server used by -bench")
	listRoots := flag.Bool("list-roots", false, "print the root servers in use and exit")
	netprobeTimeoutOverride := flag.Int("netprobe-timeout", 60, "Override the netprobe timeout")

	flag.Parse()

	if *svcFlag == "stop" || *svcFlag == "uninstall" {
		return nil
	}
	if *version {
		fmt.Println(AppVersion)
		os.Exit(0)
	}

	configExplicit := false
	flag.Visit(func(flag *flag.Flag) {
		if flag.Name == "config" {
			configExplicit = true
		}
	})
	config := newConfig()
	foundConfigFile, err := findConfigFile(configFile)
	if err != nil {
		if configExplicit {
			dlog.Fatalf("Unable to load the configuration file [%s] -- Maybe use the -config command-line switch?", *configFile)
		}
		dlog.Debugf("No configuration file found -- using built-in defaults")
	} else {
		md, err := toml.DecodeFile(foundConfigFile, &config)
		if err != nil {
			return err
		}
		undecoded := md.Undecoded()
		if len(undecoded) > 0 {
			return fmt.Errorf("Unsupported key in configuration file: [%s]", undecoded[0])
		}
		cdFileDir(foundConfigFile)
	}
	if config.LogLevel >= 0 && config.LogLevel < int(dlog.SeverityLast) {
		dlog.SetLogLevel(dlog.Severity(config.LogLevel))
	}
	if config.UseSyslog {
		dlog.UseSyslog(true)
	} else if config.LogFile != nil {
		dlog.UseLogFile(*config.LogFile)
	}

	rootServers, err := LoadRootServers(&config)
	if err != nil {
		return err
	}
	resolver := NewResolver(rootServers)
	resolver.timeout = time.Duration(config.Timeout) * time.Millisecond
	if config.MaxIndirections > 0 {
		resolver.maxIndirections = config.MaxIndirections
	}
	if config.MaxQueries > 0 {
		resolver.maxQueries = config.MaxQueries
	}
	resolver.forceTCP = config.ForceTCP
	if len(config.Proxy) > 0 {
		proxyDialerURL, err := url.Parse(config.Proxy)
		if err != nil {
			dlog.Fatalf("Unable to parse the proxy URL [%v]", config.Proxy)
		}
		proxyDialer, err := netproxy.FromURL(proxyDialerURL, netproxy.Direct)
		if err != nil {
			dlog.Fatalf("Unable to use the proxy: [%v]", err)
		}
		resolver.proxyDialer = &proxyDialer
	}
	if config.BlockUndelegated {
		resolver.undelegated = NewUndelegatedSet(append(defaultUndelegatedZones(), config.UndelegatedZones...))
	}
	if config.BlockBogonGlue {
		rules := defaultBogonRules()
		if len(config.BogonRulesFile) > 0 {
			fileRules, err := LoadBogonFile(config.BogonRulesFile)
			if err != nil {
				return err
			}
			rules = append(rules, fileRules...)
		}
		resolver.bogons = NewBogonSet(rules)
	}
	if len(config.QueryLog.File) > 0 {
		queryLogFormat := config.QueryLog.Format
		if len(queryLogFormat) == 0 {
			queryLogFormat = "tsv"
		}
		if queryLogFormat != "tsv" && queryLogFormat != "ltsv" {
			return errors.New("Unsupported query log format")
		}
		traceLogger := NewTraceLogger(Logger(config.LogMaxSize, config.LogMaxAge, config.LogMaxBackups,
			config.QueryLog.File), queryLogFormat)
		traceLogger.ignoredQTypes = config.QueryLog.IgnoredQtypes
		resolver.traceSink = traceLogger
	}

	proxy.resolver = resolver
	proxy.listenAddresses = config.ListenAddresses
	proxy.maxClients = config.MaxClients

	if *listRoots {
		for _, server := range rootServers {
			fmt.Println(server)
		}
		os.Exit(0)
	}
	if *check {
		fmt.Println("Configuration successfully checked")
		os.Exit(0)
	}
	if *bench {
		printRootLatencies(resolver, *benchRounds)
		os.Exit(0)
	}
	if len(*resolveName) > 0 {
		name, qType := parseNameAndType(*resolveName)
		ResolveAndPrint(resolver, name, qType)
		os.Exit(0)
	}
	if flag.NArg() > 0 {
		for _, arg := range flag.Args() {
			name, qType := parseNameAndType(arg)
			ResolveAndPrint(resolver, name, qType)
		}
		os.Exit(0)
	}
	if len(proxy.listenAddresses) == 0 && len(*svcFlag) == 0 {
		os.Exit(ResolveBatch(resolver, os.Stdin, os.Stdout))
	}

	netprobeTimeout := config.NetprobeTimeout
	flag.Visit(func(flag *flag.Flag) {
		if flag.Name == "netprobe-timeout" && netprobeTimeoutOverride != nil {
			netprobeTimeout = *netprobeTimeoutOverride
		}
	})
	netprobeAddress := DefaultNetprobeAddress
	if len(config.NetprobeAddress) > 0 {
		netprobeAddress = config.NetprobeAddress
	} else if len(rootServers) > 0 {
		netprobeAddress = rootServers[0]
	}
	if err := NetProbe(netprobeAddress, netprobeTimeout); err != nil {
		return err
	}
	return nil
}

func cdFileDir(fileName string) {
	os.Chdir(filepath.Dir(fileName))
}

func cdLocal() {
	exeFileName, err := os.Executable()
	if err != nil {
		dlog.Warnf("Unable to determine the executable directory: [%s] -- You will need to specify absolute paths in the configuration file", err)
		return
	}
	os.Chdir(filepath.Dir(exeFileName))
}
