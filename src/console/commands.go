package console

import "fmt"

// Console commands understood by geth.
const (
	CmdAccount = "eth.accounts[0]"
	CmdEnode   = "admin.nodeInfo.enode"
	CmdMine    = "miner.start()"
	CmdSigners = "clique.getSigners()"
	CmdPeers   = "admin.peers"
	CmdTxCount = "eth.getTransactionCount(eth.accounts[0])"
	CmdExit    = "exit"
)

// TxValue is the amount carried by every load-test transaction.
const TxValue = `web3.toWei(1e+45, "ether")`

// AddPeer returns the command connecting to the node identified by enode.
func AddPeer(enode string) string {
	return fmt.Sprintf("admin.addPeer(%q)", enode)
}

// SendTransaction returns the command submitting a transaction. data must
// already be 0x-prefixed hex.
func SendTransaction(from, to string, nonce int, data string) string {
	return fmt.Sprintf(
		`eth.sendTransaction({from:"%s", to:"%s", nonce: "%d", value:%s, data: "%s"})`,
		from,
		to,
		nonce,
		TxValue,
		data,
	)
}
