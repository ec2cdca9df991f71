package session

// Script digests, for matching EVALSHA calls in redismock.
var (
	UpdateScriptHash = updateScript.Hash()
	TouchScriptHash  = touchScript.Hash()
)
