package utils

import (
	"strconv"
	"strings"
	"time"
)

// ConnOptions параметры подключения к PostgreSQL
type ConnOptions struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ApplicationName string
	PoolSize        int
	Timeout         time.Duration
}

func (o ConnOptions) validate() error {
	switch {
	case o.Host == "":
		return ErrStorageEmptyHostName
	case o.Port < 0 || o.Port > 65535:
		return ErrStorageInvalidPortNumber
	case o.User == "":
		return ErrStorageEmptyUsername
	case o.Password == "":
		return ErrStorageEmptyPassword
	case o.DBName == "":
		return ErrStorageInvalidDatabaseName
	case o.SSLMode == "":
		return ErrStorageInvalidSslMode
	case o.Timeout < 0:
		return ErrStorageInvalidTimeout
	case o.PoolSize < 0:
		return ErrStorageInvalidPoolSize
	}
	return nil
}

// GenerateConnectionString собирает DSN в формате key=value для pgxpool.
// PoolSize попадает в pool_max_conns, нулевые необязательные поля опускаются.
func GenerateConnectionString(o ConnOptions) (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(quoteValue(value))
	}

	write("host", o.Host)
	write("port", strconv.Itoa(o.Port))
	write("user", o.User)
	write("password", o.Password)
	write("dbname", o.DBName)
	write("sslmode", o.SSLMode)
	if o.ApplicationName != "" {
		write("application_name", o.ApplicationName)
	}
	if o.Timeout > 0 {
		write("connect_timeout", strconv.Itoa(int(o.Timeout.Seconds())))
	}
	if o.PoolSize > 0 {
		write("pool_max_conns", strconv.Itoa(o.PoolSize))
	}
	return b.String(), nil
}

// quoteValue берет значение в одинарные кавычки, если в нем есть пробелы или кавычки
func quoteValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
