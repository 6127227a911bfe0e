/*
Package stddb adapts a database/sql connection to the driver-side contract
used by client-mode components. It pins one session per Conn so that BEGIN,
SAVEPOINT, and COMMIT statements act on the same underlying connection as
the queries they enclose.
*/
package stddb
