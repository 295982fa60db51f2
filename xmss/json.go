package xmss

import (
	"encoding/base64"
	"encoding/json"

	"github.com/adust09/hypercube/merkle"
	"github.com/adust09/hypercube/th"
)

// secretKeyJSON is used for JSON serialization
type secretKeyJSON struct {
	PRFKey          string       `json:"PRFKey"`
	Tree            hashTreeJSON `json:"Tree"`
	Parameter       string       `json:"Parameter"`
	ActivationEpoch int          `json:"ActivationEpoch"`
	NumActiveEpochs int          `json:"NumActiveEpochs"`
	NextIndex       int          `json:"NextIndex"`
}

// hashTreeJSON represents the JSON structure of a HashTree
type hashTreeJSON struct {
	Depth  int                  `json:"depth"`
	Layers []hashTreeLayerJSON  `json:"layers"`
}

// hashTreeLayerJSON represents the JSON structure of a HashTreeLayer
type hashTreeLayerJSON struct {
	StartIndex int      `json:"start_index"`
	Nodes      []string `json:"nodes"`
}

// MarshalJSON implements custom JSON marshaling for SecretKey
func (sk *SecretKey) MarshalJSON() ([]byte, error) {
	// Marshal PRFKey
	prfKeyStr := base64.StdEncoding.EncodeToString(sk.PRFKey)
	
	// Marshal Parameter
	paramStr := base64.StdEncoding.EncodeToString(sk.Parameter)
	
	// Marshal the tree
	treeJSON := hashTreeJSON{
		Depth:  sk.Tree.GetDepth(),
		Layers: make([]hashTreeLayerJSON, 0),
	}
	
	// Get layers from tree
	layers := sk.Tree.GetLayers()
	for _, layer := range layers {
		layerJSON := hashTreeLayerJSON{
			StartIndex: layer.GetStartIndex(),
			Nodes:      make([]string, 0),
		}
		
		// Encode each node
		nodes := layer.GetNodes()
		for _, node := range nodes {
			nodeStr := base64.StdEncoding.EncodeToString(node)
			layerJSON.Nodes = append(layerJSON.Nodes, nodeStr)
		}
		
		treeJSON.Layers = append(treeJSON.Layers, layerJSON)
	}
	
	// Create the JSON structure
	jsonSK := secretKeyJSON{
		PRFKey:          prfKeyStr,
		Tree:            treeJSON,
		Parameter:       paramStr,
		ActivationEpoch: sk.ActivationEpoch,
		NumActiveEpochs: sk.NumActiveEpochs,
		NextIndex:       sk.NextIndex,
	}

	return json.Marshal(jsonSK)
}

// UnmarshalJSON implements custom JSON unmarshaling for SecretKey
func (sk *SecretKey) UnmarshalJSON(data []byte) error {
	var jsonSK secretKeyJSON
	if err := json.Unmarshal(data, &jsonSK); err != nil {
		return err
	}
	
	// Unmarshal PRFKey
	prfKey, err := base64.StdEncoding.DecodeString(jsonSK.PRFKey)
	if err != nil {
		return err
	}
	sk.PRFKey = prfKey
	
	// Unmarshal Parameter
	param, err := base64.StdEncoding.DecodeString(jsonSK.Parameter)
	if err != nil {
		return err
	}
	sk.Parameter = param
	
	// Unmarshal the tree
	layers := make([]merkle.HashTreeLayer, 0)
	for _, layerJSON := range jsonSK.Tree.Layers {
		// Decode nodes
		nodes := make([]th.Domain, 0)
		for _, nodeStr := range layerJSON.Nodes {
			node, err := base64.StdEncoding.DecodeString(nodeStr)
			if err != nil {
				return err
			}
			nodes = append(nodes, th.Domain(node))
		}
		
		layer := merkle.NewHashTreeLayer(layerJSON.StartIndex, nodes)
		layers = append(layers, layer)
	}
	
	// Note: We cannot fully reconstruct the tree without knowing which TweakableHash to use
	// This is a limitation compared to Rust which maintains the type parameter
	// The caller must provide the correct TweakableHash instance
	sk.Tree = nil // Will be set by UnmarshalWithTH
	
	sk.ActivationEpoch = jsonSK.ActivationEpoch
	sk.NumActiveEpochs = jsonSK.NumActiveEpochs
	sk.NextIndex = jsonSK.NextIndex

	return nil
}

// publicKeyJSON is used for JSON serialization of PublicKey
type publicKeyJSON struct {
	Root      string `json:"Root"`
	Parameter string `json:"Parameter"`
}

// MarshalJSON implements custom JSON marshaling for PublicKey
func (pk *PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicKeyJSON{
		Root:      base64.StdEncoding.EncodeToString(pk.Root),
		Parameter: base64.StdEncoding.EncodeToString(pk.Parameter),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for PublicKey
func (pk *PublicKey) UnmarshalJSON(data []byte) error {
	var jsonPK publicKeyJSON
	if err := json.Unmarshal(data, &jsonPK); err != nil {
		return err
	}
	root, err := base64.StdEncoding.DecodeString(jsonPK.Root)
	if err != nil {
		return err
	}
	param, err := base64.StdEncoding.DecodeString(jsonPK.Parameter)
	if err != nil {
		return err
	}
	pk.Root = th.Domain(root)
	pk.Parameter = param
	return nil
}

// signatureJSON is used for JSON serialization of Signature
type signatureJSON struct {
	CoPath []string `json:"CoPath"`
	Rho    string   `json:"Rho"`
	Hashes []string `json:"Hashes"`
}

// MarshalJSON implements custom JSON marshaling for Signature
func (sig *Signature) MarshalJSON() ([]byte, error) {
	coPath := make([]string, len(sig.Path.CoPath))
	for i, node := range sig.Path.CoPath {
		coPath[i] = base64.StdEncoding.EncodeToString(node)
	}
	hashes := make([]string, len(sig.Hashes))
	for i, h := range sig.Hashes {
		hashes[i] = base64.StdEncoding.EncodeToString(h)
	}
	return json.Marshal(signatureJSON{
		CoPath: coPath,
		Rho:    base64.StdEncoding.EncodeToString(sig.Rho),
		Hashes: hashes,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Signature
func (sig *Signature) UnmarshalJSON(data []byte) error {
	var jsonSig signatureJSON
	if err := json.Unmarshal(data, &jsonSig); err != nil {
		return err
	}
	coPath := make([]th.Domain, len(jsonSig.CoPath))
	for i, s := range jsonSig.CoPath {
		node, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return err
		}
		coPath[i] = th.Domain(node)
	}
	rho, err := base64.StdEncoding.DecodeString(jsonSig.Rho)
	if err != nil {
		return err
	}
	hashes := make([]th.Domain, len(jsonSig.Hashes))
	for i, s := range jsonSig.Hashes {
		h, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return err
		}
		hashes[i] = th.Domain(h)
	}
	sig.Path = merkle.HashTreeOpening{CoPath: coPath}
	sig.Rho = rho
	sig.Hashes = hashes
	return nil
}

// UnmarshalSecretKey unmarshals a SecretKey with the correct TweakableHash
func UnmarshalSecretKey(data []byte, thash th.TweakableHash) (*SecretKey, error) {
	var jsonSK secretKeyJSON
	if err := json.Unmarshal(data, &jsonSK); err != nil {
		return nil, err
	}
	
	// Unmarshal PRFKey
	prfKey, err := base64.StdEncoding.DecodeString(jsonSK.PRFKey)
	if err != nil {
		return nil, err
	}
	
	// Unmarshal Parameter
	param, err := base64.StdEncoding.DecodeString(jsonSK.Parameter)
	if err != nil {
		return nil, err
	}
	
	// Unmarshal the tree layers
	layers := make([]merkle.HashTreeLayer, 0)
	for _, layerJSON := range jsonSK.Tree.Layers {
		// Decode nodes
		nodes := make([]th.Domain, 0)
		for _, nodeStr := range layerJSON.Nodes {
			node, err := base64.StdEncoding.DecodeString(nodeStr)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, th.Domain(node))
		}
		
		layer := merkle.NewHashTreeLayer(layerJSON.StartIndex, nodes)
		layers = append(layers, layer)
	}
	
	// Reconstruct the tree WITH the TweakableHash
	tree := merkle.NewHashTreeFromLayers(jsonSK.Tree.Depth, layers, param, thash)
	
	return &SecretKey{
		PRFKey:          prfKey,
		Tree:            tree,
		Parameter:       param,
		ActivationEpoch: jsonSK.ActivationEpoch,
		NumActiveEpochs: jsonSK.NumActiveEpochs,
		NextIndex:       jsonSK.NextIndex,
	}, nil
}