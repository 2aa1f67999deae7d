package registry

import "io"

type ServerConf struct {
	IPListen string `yaml:"ip_listen"`
	Port     int    `yaml:"port"`
	// Domain is the public domain the registry is served under
	Domain            string   `yaml:"domain"`
	TLS               tlsConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
	// AccessLog receives the http access log, stdout if nil
	AccessLog io.Writer `yaml:"-"`
}

type tlsConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}
